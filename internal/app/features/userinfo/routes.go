// internal/app/features/userinfo/routes.go
package userinfo

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers GET /api/me on the supplied router behind
// requireMember.
func MountRoutes(r chi.Router, h *Handler, requireMember func(http.Handler) http.Handler) {
	r.With(requireMember).Get("/api/me", h.ServeMe)
}
