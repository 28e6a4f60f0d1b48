package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/carevia/foundation/internal/csrf"
	"github.com/carevia/foundation/internal/domain"
	"github.com/carevia/foundation/internal/middleware"
	"github.com/carevia/foundation/internal/service"
	"github.com/carevia/foundation/internal/session"
	authpages "github.com/carevia/foundation/internal/templ/pages/auth"
	"github.com/carevia/foundation/internal/templ/shared"
)

// maxLoginBody caps the size of a login request body.
const maxLoginBody = 16 << 10

// AuthHandler serves the login page and applies the issuer's results.
type AuthHandler struct {
	issuer     service.SessionIssuer
	store      session.Store
	loginPath  string
	adminPath  string
	trustProxy bool
	logger     *slog.Logger
}

// AuthHandlerConfig configures an AuthHandler.
type AuthHandlerConfig struct {
	LoginPath  string // Login page, e.g. /login.html
	AdminPath  string // Post-login destination, e.g. /admin.html
	TrustProxy bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(issuer service.SessionIssuer, store session.Store, cfg AuthHandlerConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		issuer:     issuer,
		store:      store,
		loginPath:  cfg.LoginPath,
		adminPath:  cfg.AdminPath,
		trustProxy: cfg.TrustProxy,
		logger:     logger,
	}
}

// RegisterRoutes registers the login and logout routes.
// limitLogin wraps the login submission, typically with a rate limiter.
//
// Routes registered:
//   - GET  {loginPath} -> ShowLogin
//   - POST /login      -> Login
//   - POST /logout     -> Logout
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, limitLogin func(http.Handler) http.Handler) {
	mux.HandleFunc("GET "+h.loginPath, h.ShowLogin)
	mux.Handle("POST /login", limitLogin(http.HandlerFunc(h.Login)))
	mux.HandleFunc("POST /logout", h.Logout)
}

// =============================================================================
// GET /login.html
// =============================================================================

// ShowLogin renders the login form.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	var flash *shared.Flash
	if r.URL.Query().Get("logout") == "1" {
		flash = &shared.Flash{Type: shared.FlashSuccess, Message: "You have been signed out."}
	}
	h.renderLogin(w, r, http.StatusOK, "", flash)
}

// =============================================================================
// POST /login
// =============================================================================

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Redirect string `json:"redirect"`
}

// Login processes a credential submission.
//
// Form submissions must carry the CSRF token. JSON submissions are accepted
// without it: browsers cannot send a cross-origin JSON body without a
// preflight.
//
// Success: the marker is written and a 303 to the admin page is sent in the
// same response (JSON clients get the redirect target in the body).
// Failure: the form is re-rendered with the issuer's message and the email
// preserved; no marker is written.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)
	jsonBody := hasJSONBody(r)
	isJSON := acceptsJSON(r)

	var creds domain.Credentials
	if jsonBody {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, domain.EINVALID, "Invalid request body.")
			return
		}
		creds = domain.Credentials{Identifier: req.Email, Secret: req.Password}
	} else {
		if err := r.ParseForm(); err != nil {
			h.renderLogin(w, r, http.StatusBadRequest, "", &shared.Flash{
				Type:    shared.FlashError,
				Message: "Invalid form submission. Please try again.",
			})
			return
		}
		creds = domain.Credentials{Identifier: r.PostFormValue("email"), Secret: r.PostFormValue("password")}

		if !csrf.Valid(r) {
			h.logger.Warn("login rejected: csrf token mismatch", "ip", middleware.ClientIP(r, h.trustProxy))
			h.renderLogin(w, r, http.StatusForbidden, creds.Normalize().Identifier, &shared.Flash{
				Type:    shared.FlashError,
				Message: "Your session expired. Please try again.",
			})
			return
		}
	}

	secure := session.IsSecureRequest(r, h.trustProxy)
	result, err := h.issuer.Login(r.Context(), service.LoginParams{
		Credentials: creds,
		ClientKey:   middleware.ClientIP(r, h.trustProxy),
		Secure:      secure,
	})
	if err != nil {
		status := ErrorCodeToHTTPStatus(domain.ErrorCode(err))
		if isJSON {
			writeJSONError(w, status, domain.ErrorCode(err), domain.ErrorMessage(err))
			return
		}
		h.renderLogin(w, r, status, creds.Normalize().Identifier, &shared.Flash{
			Type:    shared.FlashError,
			Message: domain.ErrorMessage(err),
		})
		return
	}

	if err := h.store.Set(w, r, result.Marker); err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "handler.Login", "Could not start session"))
		return
	}

	if isJSON {
		writeJSON(w, http.StatusOK, loginResponse{Redirect: h.adminPath})
		return
	}
	http.Redirect(w, r, h.adminPath, http.StatusSeeOther)
}

// renderLogin renders the login page with the given status.
func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, email string, flash *shared.Flash) {
	token, err := csrf.EnsureToken(w, r, session.IsSecureRequest(r, h.trustProxy))
	if err != nil {
		h.logger.Error("failed to issue csrf token", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := authpages.LoginPageData{
		Action:        "/login",
		Email:         email,
		Flash:         flash,
		CSRFFieldName: csrf.FormFieldName,
		CSRFToken:     token,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := authpages.LoginPage(data).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render login page", "error", err)
	}
}

// =============================================================================
// POST /logout
// =============================================================================

// Logout clears the marker and returns to the login page. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.Clear(w, r)
	h.logger.Debug("session cleared", "ip", middleware.ClientIP(r, h.trustProxy))
	http.Redirect(w, r, h.loginPath+"?logout=1", http.StatusSeeOther)
}
