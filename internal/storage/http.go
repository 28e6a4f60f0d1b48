package storage

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// FileHandler serves stored objects below prefix, e.g. /files/gallery/x.jpg
// for key gallery/x.jpg. Used with LocalStorage; R2 objects are served from
// the bucket's public domain.
func FileHandler(prefix string, s Storage, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, prefix)
		if key == "" || key == r.URL.Path {
			http.NotFound(w, r)
			return
		}

		body, info, err := s.Get(r.Context(), key)
		if err != nil {
			if IsNotFound(err) || errors.Is(err, ErrInvalidKey) {
				http.NotFound(w, r)
				return
			}
			logger.Error("failed to read stored file", "key", key, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		defer body.Close()

		w.Header().Set("Content-Type", info.ContentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		if rs, ok := body.(io.ReadSeeker); ok {
			http.ServeContent(w, r, key, info.LastModified, rs)
			return
		}
		_, _ = io.Copy(w, body)
	})
}
