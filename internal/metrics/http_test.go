package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/admin.html", "/admin.html"},
		{"/files/gallery/0b9b3e0e-8f5a-4c53-9d68-0d5c3c1a7e11.jpg", "/files/{key}"},
		{"/assets/css/site.css", "/assets/*"},
		{"/images/hero.jpg", "/images/*"},
		{"/api/items/0b9b3e0e-8f5a-4c53-9d68-0d5c3c1a7e11", "/api/items/{id}"},
		{"/admin/gallery/12/delete", "/admin/gallery/{id}/delete"},
		{"/admin/testimonials/7", "/admin/testimonials/{id}"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMiddleware_PassesThrough(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/login.html", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status %d, got %d", http.StatusTeapot, rec.Code)
	}
}
