package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kcgaragesales/kc-garage-sales/internal/middleware"
)

func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminSession(h.guard))

		r.Get("/", h.List)
		r.Post("/delete", h.Delete)
		r.Post("/toggle-verify", h.ToggleVerify)
	})

	return r
}
