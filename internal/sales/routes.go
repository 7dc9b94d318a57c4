package sales

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the public and owner routes. The /verify and /manage
// paths carry secret tokens.
func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.ListUpcoming)
	r.Get("/sale/{id}", h.GetSale)
	r.Get("/api/catalog", h.Catalog)
	r.Post("/api/sales", h.CreateSale)
	r.Post("/api/report", h.Report)

	r.Get("/verify/{token}", h.Verify)

	r.Route("/manage/{token}", func(r chi.Router) {
		r.Get("/", h.Manage)
		r.Post("/update", h.UpdateSale)
		r.Post("/delete", h.DeleteSale)
	})

	return r
}
