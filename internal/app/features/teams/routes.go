// internal/app/features/teams/routes.go
package teams

import (
	"net/http"

	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/teams. requireMember must
// resolve the caller before any role check runs.
func Routes(h *Handler, requireMember func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireMember)

	// Leaders and super admins
	r.Group(func(r chi.Router) {
		r.Use(identity.RequireRole(h.Log, models.RoleAdmin, models.RoleSuperAdmin))
		r.Get("/", h.ServeList)
		r.Patch("/{id}", h.ServePatch)
	})

	// Super admins only
	r.Group(func(r chi.Router) {
		r.Use(identity.RequireRole(h.Log, models.RoleSuperAdmin))
		r.Post("/", h.ServeCreate)
		r.Post("/seed", h.ServeSeed)
		r.Delete("/{id}", h.ServeDelete)
	})

	return r
}
