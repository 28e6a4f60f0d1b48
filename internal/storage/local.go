package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects under a base directory. The server exposes the
// directory at LocalConfig.BaseURL through FileHandler.
type LocalStorage struct {
	root    string
	baseURL string
	logger  *slog.Logger
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(cfg LocalConfig, logger *slog.Logger) (*LocalStorage, error) {
	root, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage path: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	logger.Info("initialized local storage", "path", root, "base_url", cfg.BaseURL)

	return &LocalStorage{
		root:    root,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		logger:  logger,
	}, nil
}

// Put writes to a temporary file in the target directory and renames it into
// place, so readers never see a partial image.
func (s *LocalStorage) Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.path(key)
	if err != nil {
		return opErr("put", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return opErr("put", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return opErr("put", key, err)
	}
	defer os.Remove(tmp.Name())

	src := data
	if opts.MaxSize > 0 {
		src = io.LimitReader(data, opts.MaxSize+1)
	}
	n, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return opErr("put", key, err)
	}
	if opts.MaxSize > 0 && n > opts.MaxSize {
		return opErr("put", key, ErrTooLarge)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return opErr("put", key, err)
	}

	s.logger.Debug("stored file", "key", key, "size", n)
	return nil
}

// Get opens the file at key.
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}

	path, err := s.path(key)
	if err != nil {
		return nil, ObjectInfo{}, opErr("get", key, err)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrNotFound
		}
		return nil, ObjectInfo{}, opErr("get", key, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, opErr("get", key, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, ObjectInfo{}, opErr("get", key, ErrNotFound)
	}

	return f, ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ContentType:  ContentTypeForKey(key),
		LastModified: st.ModTime(),
	}, nil
}

// Delete removes the file at key.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.path(key)
	if err != nil {
		return opErr("delete", key, err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return opErr("delete", key, err)
	}

	s.logger.Debug("deleted file", "key", key)
	return nil
}

// URL returns BaseURL/key.
func (s *LocalStorage) URL(key string) string {
	return s.baseURL + "/" + strings.TrimPrefix(key, "/")
}

// path maps a key to a file below root, rejecting anything that escapes it.
func (s *LocalStorage) path(key string) (string, error) {
	if key == "" || !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Compile-time check
var _ Storage = (*LocalStorage)(nil)
