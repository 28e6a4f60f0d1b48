package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/carevia/foundation/internal/domain"
	"github.com/carevia/foundation/internal/middleware"
	"github.com/carevia/foundation/internal/service"
)

// maxContactBody caps the size of a contact form submission.
const maxContactBody = 64 << 10

// ContentHandler serves the public site's JSON API.
type ContentHandler struct {
	content    service.ContentService
	trustProxy bool
	logger     *slog.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(content service.ContentService, trustProxy bool, logger *slog.Logger) *ContentHandler {
	return &ContentHandler{
		content:    content,
		trustProxy: trustProxy,
		logger:     logger,
	}
}

// RegisterRoutes registers the public API routes.
// limitContact wraps contact submissions, typically with a rate limiter.
func (h *ContentHandler) RegisterRoutes(mux *http.ServeMux, limitContact func(http.Handler) http.Handler) {
	mux.Handle("POST /api/contacts", limitContact(http.HandlerFunc(h.SubmitContact)))
	mux.HandleFunc("GET /api/gallery", h.ListGallery)
	mux.HandleFunc("GET /api/testimonials", h.ListTestimonials)
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type contactResponse struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitContact stores a contact form message. Accepts JSON or a
// URL-encoded form.
func (h *ContentHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)

	var req contactRequest
	if hasJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, domain.EINVALID, "Invalid request body.")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, domain.EINVALID, "Invalid form submission.")
			return
		}
		req = contactRequest{
			Name:    r.PostFormValue("name"),
			Email:   r.PostFormValue("email"),
			Phone:   r.PostFormValue("phone"),
			Subject: r.PostFormValue("subject"),
			Message: r.PostFormValue("message"),
		}
	}

	contact, err := h.content.SubmitContact(r.Context(), domain.ContactParams{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Subject:     req.Subject,
		Message:     req.Message,
		SubmitterIP: net.ParseIP(middleware.ClientIP(r, h.trustProxy)),
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, contactResponse{ID: contact.ID, CreatedAt: contact.CreatedAt})
}

// ListGallery returns gallery items, newest first.
func (h *ContentHandler) ListGallery(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.ListGallery(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if items == nil {
		items = []domain.GalleryItem{}
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, items)
}

// ListTestimonials returns testimonials, newest first.
func (h *ContentHandler) ListTestimonials(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.ListTestimonials(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if items == nil {
		items = []domain.Testimonial{}
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, items)
}
