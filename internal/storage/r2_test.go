package storage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeS3 is a minimal path-style S3 endpoint holding objects in memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/media/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.types[key])
		_, _ = w.Write(body)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestR2(t *testing.T) (*R2Storage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	s, err := NewR2Storage(context.Background(), R2Config{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		BucketName:      "media",
		PublicURL:       "https://media.example.org/",
		Endpoint:        server.URL,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewR2Storage: %v", err)
	}
	return s, fake
}

func TestR2Storage_PutGetDelete(t *testing.T) {
	s, fake := newTestR2(t)
	ctx := context.Background()

	if err := s.Put(ctx, "gallery/a.jpg", strings.NewReader("jpeg-bytes"), PutOptions{MaxSize: 100}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if fake.types["gallery/a.jpg"] != "image/jpeg" {
		t.Errorf("expected content type from key, got %q", fake.types["gallery/a.jpg"])
	}

	rc, info, err := s.Get(ctx, "gallery/a.jpg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "jpeg-bytes" || info.ContentType != "image/jpeg" {
		t.Errorf("unexpected object %q %+v", data, info)
	}

	if err := s.Delete(ctx, "gallery/a.jpg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := s.Get(ctx, "gallery/a.jpg"); !IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestR2Storage_PutTooLarge(t *testing.T) {
	s, fake := newTestR2(t)

	err := s.Put(context.Background(), "gallery/big.jpg", strings.NewReader("0123456789x"), PutOptions{MaxSize: 10})
	if !IsTooLarge(err) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if len(fake.objects) != 0 {
		t.Error("oversized object must not be uploaded")
	}
}

func TestR2Storage_URL(t *testing.T) {
	s, _ := newTestR2(t)

	if got := s.URL("gallery/a.jpg"); got != "https://media.example.org/gallery/a.jpg" {
		t.Errorf("unexpected URL %q", got)
	}
}

func TestNewR2Storage_RequiresSettings(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, err := NewR2Storage(context.Background(), R2Config{BucketName: "media"}, logger); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := NewR2Storage(context.Background(), R2Config{
		AccessKeyID: "k", SecretAccessKey: "s", BucketName: "media",
	}, logger); err == nil {
		t.Error("expected error without public URL")
	}
}
