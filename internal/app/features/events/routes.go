// internal/app/features/events/routes.go
package events

import (
	"net/http"

	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/events. Any registered member
// may read; only super admins may write.
func Routes(h *Handler, requireMember func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireMember)

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeView)

	r.Group(func(r chi.Router) {
		r.Use(identity.RequireRole(h.Log, models.RoleSuperAdmin))
		r.Post("/", h.ServeCreate)
		r.Patch("/{id}", h.ServePatch)
		r.Delete("/{id}", h.ServeDelete)
	})

	return r
}
