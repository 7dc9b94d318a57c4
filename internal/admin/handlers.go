// Package admin serves the moderation surface. Every moderation call passes
// the access.Admin resolved by the session middleware into the sales service.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"github.com/kcgaragesales/kc-garage-sales/internal/access"
	"github.com/kcgaragesales/kc-garage-sales/internal/middleware"
	"github.com/kcgaragesales/kc-garage-sales/internal/sales"
	"github.com/kcgaragesales/kc-garage-sales/internal/utils"
)

const maxBody = 64 << 10

type Handler struct {
	guard        *access.Guard
	svc          *sales.Service
	secureCookie bool
}

// NewHandler builds the admin handlers. secureCookie marks the session
// cookie Secure, which should be set whenever the site is served over HTTPS.
func NewHandler(guard *access.Guard, svc *sales.Service, secureCookie bool) *Handler {
	return &Handler{guard: guard, svc: svc, secureCookie: secureCookie}
}

type request struct {
	Password      string          `json:"password"`
	SaleID        string          `json:"sale_id"`
	CurrentStatus json.RawMessage `json:"current_status"`

	currentStatus string
	form          bool
}

// decode reads a JSON, url-encoded or multipart body.
func decode(w http.ResponseWriter, r *http.Request) (request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	var in request
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := render.DecodeJSON(r.Body, &in); err != nil {
			return in, err
		}
		in.currentStatus = strings.Trim(string(in.CurrentStatus), `"`)
		return in, nil
	}

	if err := r.ParseMultipartForm(maxBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return in, err
	}
	in.form = true
	in.Password = r.PostFormValue("password")
	in.SaleID = r.PostFormValue("sale_id")
	in.currentStatus = r.PostFormValue("current_status")
	return in, nil
}

// done answers form posts with a redirect back to the dashboard and JSON
// callers with {"success": true}.
func done(w http.ResponseWriter, r *http.Request, in request) {
	if in.form {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	render.JSON(w, r, map[string]bool{"success": true})
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	sales.RespondError(w, r, &sales.ValidationError{Message: msg})
}

func (h *Handler) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// Login handles POST /admin/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	in, err := decode(w, r)
	if err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}

	session, err := h.guard.Login(r.Context(), in.Password)
	if errors.Is(err, access.ErrInvalidPassword) {
		log.Warn().Msg("admin login rejected")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "Invalid password"})
		return
	}
	if err != nil {
		sales.RespondError(w, r, err)
		return
	}

	h.setCookie(w, session.SessionID, session.ExpiresAt)
	log.Info().Msg("admin logged in")
	done(w, r, in)
}

// Logout handles POST /admin/logout. It succeeds without a session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.AdminCookie); err == nil {
		if err := h.guard.Logout(r.Context(), cookie.Value); err != nil {
			sales.RespondError(w, r, err)
			return
		}
	}
	h.setCookie(w, "", time.Unix(0, 0))
	render.JSON(w, r, map[string]bool{"success": true})
}

// moderationRow exposes the owner's email, which public responses hide.
type moderationRow struct {
	sales.Listing
	Email string `json:"email"`
}

// List handles GET /admin.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	admin, _ := utils.AdminFromContext(r.Context())

	listings, err := h.svc.ListForModeration(r.Context(), admin)
	if err != nil {
		sales.RespondError(w, r, err)
		return
	}
	rows := make([]moderationRow, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, moderationRow{Listing: l, Email: l.Email})
	}
	render.JSON(w, r, map[string]any{"sales": rows})
}

// Delete handles POST /admin/delete.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	admin, _ := utils.AdminFromContext(r.Context())

	in, err := decode(w, r)
	if err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if in.SaleID == "" {
		badRequest(w, r, "sale_id is required")
		return
	}
	if err := h.svc.AdminDelete(r.Context(), admin, in.SaleID); err != nil {
		sales.RespondError(w, r, err)
		return
	}
	done(w, r, in)
}

// ToggleVerify handles POST /admin/toggle-verify. current_status is the flag
// the dashboard showed; the listing is set to the opposite.
func (h *Handler) ToggleVerify(w http.ResponseWriter, r *http.Request) {
	admin, _ := utils.AdminFromContext(r.Context())

	in, err := decode(w, r)
	if err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	if in.SaleID == "" {
		badRequest(w, r, "sale_id is required")
		return
	}
	current, err := strconv.ParseBool(in.currentStatus)
	if err != nil {
		badRequest(w, r, "current_status must be true or false")
		return
	}
	if err := h.svc.SetVerified(r.Context(), admin, in.SaleID, !current); err != nil {
		sales.RespondError(w, r, err)
		return
	}
	done(w, r, in)
}
