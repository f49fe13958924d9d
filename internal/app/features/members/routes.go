// internal/app/features/members/routes.go
package members

import (
	"net/http"

	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/members.
func Routes(h *Handler, requireMember func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireMember)

	r.With(identity.RequireRole(h.Log, models.RoleAdmin, models.RoleSuperAdmin)).Get("/", h.ServeList)

	// Super admins only
	r.Group(func(r chi.Router) {
		r.Use(identity.RequireRole(h.Log, models.RoleSuperAdmin))
		r.Post("/", h.ServeCreate)
		r.Patch("/{id}", h.ServePatch)
		r.Delete("/{id}", h.ServeDelete)
	})

	return r
}
