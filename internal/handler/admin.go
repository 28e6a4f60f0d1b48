package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/carevia/foundation/internal/csrf"
	"github.com/carevia/foundation/internal/domain"
	"github.com/carevia/foundation/internal/service"
	"github.com/carevia/foundation/internal/session"
	"github.com/carevia/foundation/internal/templ/pages/admin"
	"github.com/carevia/foundation/internal/templ/shared"
)

// multipartMemory is how much of an upload is held in memory before
// spilling to a temp file.
const multipartMemory = 1 << 20

// notices maps the ?notice= values set after admin actions to messages.
var notices = map[string]string{
	"image-added":         "Image added to the gallery.",
	"image-deleted":       "Image removed.",
	"testimonial-added":   "Testimonial added.",
	"testimonial-deleted": "Testimonial removed.",
}

// AdminHandler serves the admin dashboard and its forms. Every route sits
// under a protected prefix, so the route guard runs before these handlers.
type AdminHandler struct {
	content    service.ContentService
	adminPath  string
	trustProxy bool
	logger     *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(content service.ContentService, adminPath string, trustProxy bool, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		content:    content,
		adminPath:  adminPath,
		trustProxy: trustProxy,
		logger:     logger,
	}
}

// RegisterRoutes registers the admin routes.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+h.adminPath, h.Dashboard)
	mux.HandleFunc("POST /admin/gallery", h.UploadImage)
	mux.HandleFunc("POST /admin/gallery/{id}/delete", h.DeleteImage)
	mux.HandleFunc("POST /admin/testimonials", h.AddTestimonial)
	mux.HandleFunc("POST /admin/testimonials/{id}/delete", h.DeleteTestimonial)
}

// Dashboard renders recent contacts, the gallery and testimonials.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	var flash *shared.Flash
	if msg, ok := notices[r.URL.Query().Get("notice")]; ok {
		flash = &shared.Flash{Type: shared.FlashSuccess, Message: msg}
	}
	h.renderDashboard(w, r, http.StatusOK, flash)
}

// renderDashboard loads the three lists concurrently and renders the page.
func (h *AdminHandler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, flash *shared.Flash) {
	data := admin.DashboardPageData{
		Flash:         flash,
		CSRFFieldName: csrf.FormFieldName,
		MaxUploadMB:   service.MaxGalleryUploadBytes >> 20,
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		data.Contacts, err = h.content.ListRecentContacts(ctx, service.DefaultRecentContacts)
		return err
	})
	g.Go(func() error {
		var err error
		data.Gallery, err = h.content.ListGallery(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		data.Testimonials, err = h.content.ListTestimonials(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	token, err := csrf.EnsureToken(w, r, session.IsSecureRequest(r, h.trustProxy))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "admin.Dashboard", "Could not render page"))
		return
	}
	data.CSRFToken = token

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := admin.DashboardPage(data).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render admin dashboard", "error", err)
	}
}

// fail reports an admin action error: JSON clients get the error body,
// browsers get the dashboard again with the message.
func (h *AdminHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if acceptsJSON(r) {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	status := ErrorCodeToHTTPStatus(domain.ErrorCode(err))
	logError(h.logger, r, err, status)
	h.renderDashboard(w, r, status, &shared.Flash{Type: shared.FlashError, Message: domain.ErrorMessage(err)})
}

// done redirects back to the dashboard with a notice.
func (h *AdminHandler) done(w http.ResponseWriter, r *http.Request, notice string) {
	http.Redirect(w, r, h.adminPath+"?notice="+notice, http.StatusSeeOther)
}

// UploadImage stores a new gallery image from a multipart form.
//
// Form Fields:
//   - image (required): the image file
//   - caption (optional)
func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	const op = "admin.UploadImage"

	// Room for the other form fields on top of the image itself.
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxGalleryUploadBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, domain.Errorf(domain.ETOOLARGE, op, "Image must be %d MB or smaller", service.MaxGalleryUploadBytes>>20))
			return
		}
		h.fail(w, r, domain.Invalid(op, "Invalid upload. Please try again."))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	if !csrf.Valid(r) {
		h.fail(w, r, domain.Errorf(domain.EFORBIDDEN, op, "Your session expired. Please reload the page."))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.fail(w, r, domain.Invalid(op, "Please choose an image to upload."))
		return
	}
	defer file.Close()

	_, err = h.content.AddGalleryItem(r.Context(), domain.GalleryUploadParams{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Caption:     r.FormValue("caption"),
		Size:        header.Size,
	}, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.done(w, r, "image-added")
}

// DeleteImage removes a gallery image.
func (h *AdminHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseAction(w, r, "admin.DeleteImage")
	if !ok {
		return
	}
	if err := h.content.DeleteGalleryItem(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.done(w, r, "image-deleted")
}

// AddTestimonial stores a testimonial.
//
// Form Fields:
//   - author_name (required)
//   - author_role (optional)
//   - quote (required)
func (h *AdminHandler) AddTestimonial(w http.ResponseWriter, r *http.Request) {
	const op = "admin.AddTestimonial"

	r.Body = http.MaxBytesReader(w, r.Body, maxContactBody)
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, domain.Invalid(op, "Invalid form submission."))
		return
	}
	if !csrf.Valid(r) {
		h.fail(w, r, domain.Errorf(domain.EFORBIDDEN, op, "Your session expired. Please reload the page."))
		return
	}

	_, err := h.content.AddTestimonial(r.Context(), domain.TestimonialParams{
		AuthorName: r.PostFormValue("author_name"),
		AuthorRole: r.PostFormValue("author_role"),
		Quote:      r.PostFormValue("quote"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.done(w, r, "testimonial-added")
}

// DeleteTestimonial removes a testimonial.
func (h *AdminHandler) DeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseAction(w, r, "admin.DeleteTestimonial")
	if !ok {
		return
	}
	if err := h.content.DeleteTestimonial(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.done(w, r, "testimonial-deleted")
}

// parseAction validates the CSRF token and the {id} path value of a delete
// form. It writes the failure response itself.
func (h *AdminHandler) parseAction(w http.ResponseWriter, r *http.Request, op string) (int64, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)
	if err := r.ParseForm(); err != nil || !csrf.Valid(r) {
		h.fail(w, r, domain.Errorf(domain.EFORBIDDEN, op, "Your session expired. Please reload the page."))
		return 0, false
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(w, r, domain.NotFound(op, "item", r.PathValue("id")))
		return 0, false
	}
	return id, true
}
