// internal/app/features/attendance/routes.go
package attendance

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /api/attendance. requireMember
// resolves the caller to a member; limitLinks throttles anonymous link
// submissions.
func Routes(h *Handler, requireMember, limitLinks func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// Public
	r.Get("/venue", h.ServeVenue)
	r.Get("/submit", h.ServeLinkRoster)
	r.With(limitLinks).Post("/submit", h.ServeLinkSubmit)

	// Registered members
	r.Group(func(r chi.Router) {
		r.Use(requireMember)
		r.Get("/", h.ServeList)
		r.Get("/report", h.ServeReport)
		r.Post("/", h.ServeSubmit)
		r.Post("/link", h.ServeIssueLink)
	})

	return r
}
