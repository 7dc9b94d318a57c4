package sales

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"github.com/kcgaragesales/kc-garage-sales/internal/catalog"
	"github.com/kcgaragesales/kc-garage-sales/internal/notify"
)

const (
	multipartMemory = 8 << 20
	maxFormBody     = 1 << 20
)

type Handler struct {
	svc     *Service
	maxBody int64
}

// NewHandler serves the public and owner routes. The submission body cap
// leaves room for one photo past maxPhotoBytes, so a single oversized or
// surplus photo is dropped by the service instead of failing the request.
func NewHandler(svc *Service, maxPhotos int, maxPhotoBytes int64) *Handler {
	return &Handler{svc: svc, maxBody: int64(maxPhotos+1)*maxPhotoBytes + maxFormBody}
}

type errorResponse struct {
	Error string `json:"error"`
}

// RespondError maps a service error to a status code and a message safe to
// show the caller. Dependency failures are logged and reported generically.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: verr.Message})
	case errors.Is(err, ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: "Sale not found"})
	case errors.Is(err, ErrUnauthorized):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, errorResponse{Error: "Unauthorized"})
	default:
		log.Error().Err(err).Str("request_id", chimw.GetReqID(r.Context())).Msg("request failed")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: "Internal server error"})
	}
}

type listResponse struct {
	Sales  []Listing     `json:"sales"`
	Center catalog.Point `json:"center"`
}

// ListUpcoming handles GET /.
func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sales, err := h.svc.ListUpcoming(r.Context(), Filter{
		Category: q.Get("category"),
		City:     q.Get("city"),
		Query:    q.Get("q"),
	})
	if err != nil {
		RespondError(w, r, err)
		return
	}
	if sales == nil {
		sales = []Listing{}
	}
	render.JSON(w, r, listResponse{Sales: sales, Center: h.svc.Catalog().Center})
}

// GetSale handles GET /sale/{id}.
func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, err)
		return
	}
	render.JSON(w, r, l)
}

// Catalog handles GET /api/catalog.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.svc.Catalog())
}

type submitResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// CreateSale handles POST /api/sales with a JSON or multipart body.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var in Submission
	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			RespondError(w, r, invalid("Invalid form data"))
			return
		}
		defer r.MultipartForm.RemoveAll()

		in = submissionFromForm(r.MultipartForm.Value)
		photos, err := readUploads(r.MultipartForm.File["photos"])
		if err != nil {
			RespondError(w, r, invalid("Could not read uploaded photos"))
			return
		}
		in.Photos = photos
	} else if err := render.DecodeJSON(r.Body, &in); err != nil {
		RespondError(w, r, invalid("Invalid request body"))
		return
	}

	id, err := h.svc.Submit(r.Context(), in)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	render.JSON(w, r, submitResponse{Success: true, ID: id.String()})
}

// Verify handles GET /verify/{token} and redirects to the listing page.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Verify(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		RespondError(w, r, err)
		return
	}
	status := "success"
	if out.AlreadyVerified {
		status = "already"
	}
	http.Redirect(w, r, fmt.Sprintf("/sale/%s?verified=%s", out.ID, status), http.StatusFound)
}

type manageResponse struct {
	Sale       Listing  `json:"sale"`
	Categories []string `json:"categories"`
}

// Manage handles GET /manage/{token}. The response carries the owner's own
// listing; the token itself is not echoed back.
func (h *Handler) Manage(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Manage(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		RespondError(w, r, err)
		return
	}
	render.JSON(w, r, manageResponse{Sale: l, Categories: h.svc.Catalog().Categories})
}

// UpdateSale handles POST /manage/{token}/update.
func (h *Handler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)

	var in Update
	if isJSON(r) {
		if err := render.DecodeJSON(r.Body, &in); err != nil {
			RespondError(w, r, invalid("Invalid request body"))
			return
		}
	} else {
		form, err := parseForm(r)
		if err != nil {
			RespondError(w, r, invalid("Invalid form data"))
			return
		}
		in = updateFromForm(form)
	}

	if err := h.svc.Update(r.Context(), token, in); err != nil {
		RespondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/manage/"+url.PathEscape(token)+"?updated=true", http.StatusSeeOther)
}

// DeleteSale handles POST /manage/{token}/delete.
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "token")); err != nil {
		RespondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/?deleted=true", http.StatusSeeOther)
}

type reportRequest struct {
	SaleID    string `json:"sale_id"`
	SaleTitle string `json:"sale_title"`
	Reason    string `json:"reason"`
}

// Report handles POST /api/report.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)

	var in reportRequest
	if isJSON(r) {
		if err := render.DecodeJSON(r.Body, &in); err != nil {
			RespondError(w, r, invalid("Invalid request body"))
			return
		}
	} else {
		form, err := parseForm(r)
		if err != nil {
			RespondError(w, r, invalid("Invalid form data"))
			return
		}
		in = reportRequest{SaleID: form.Get("sale_id"), SaleTitle: form.Get("sale_title"), Reason: form.Get("reason")}
	}

	if err := h.svc.Report(r.Context(), notify.Report{
		SaleID:    in.SaleID,
		SaleTitle: in.SaleTitle,
		Reason:    in.Reason,
	}); err != nil {
		RespondError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"success": true})
}

func mediaType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

func isMultipart(r *http.Request) bool { return mediaType(r) == "multipart/form-data" }

func isJSON(r *http.Request) bool { return mediaType(r) == "application/json" }

// parseForm reads url-encoded and multipart bodies alike.
func parseForm(r *http.Request) (url.Values, error) {
	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, err
		}
		return r.MultipartForm.Value, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

// formCategories accepts either repeated categories fields or one field
// holding a JSON array.
func formCategories(values []string) []string {
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var out []string
		if err := json.Unmarshal([]byte(values[0]), &out); err == nil {
			return out
		}
	}
	return values
}

func submissionFromForm(v url.Values) Submission {
	get := func(k string) string {
		if vs := v[k]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}
	return Submission{
		CaptchaToken: first(get("captcha_token"), get("cf-turnstile-response")),
		Email:        get("email"),
		Title:        get("title"),
		Description:  get("description"),
		Address:      get("address"),
		City:         get("city"),
		State:        get("state"),
		ZipCode:      get("zip_code"),
		StartDate:    get("start_date"),
		EndDate:      get("end_date"),
		StartTime:    get("start_time"),
		EndTime:      get("end_time"),
		Categories:   formCategories(v["categories"]),
	}
}

func updateFromForm(v url.Values) Update {
	return Update{
		Title:       v.Get("title"),
		Description: v.Get("description"),
		StartDate:   v.Get("start_date"),
		EndDate:     v.Get("end_date"),
		StartTime:   v.Get("start_time"),
		EndTime:     v.Get("end_time"),
		Categories:  formCategories(v["categories"]),
	}
}

func readUploads(headers []*multipart.FileHeader) ([]Upload, error) {
	out := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, Upload{
			Data:        data,
			ContentType: fh.Header.Get("Content-Type"),
			Filename:    fh.Filename,
		})
	}
	return out, nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
