// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"go.uber.org/zap"
)

// Handler serves the resolved member for the current caller.
type Handler struct {
	Log *zap.Logger
}

// NewHandler creates a new userinfo handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// ServeMe returns the member the caller's credentials resolved to.
// The identity middleware has already rejected unknown callers, including
// the first-super-admin bootstrap on an empty directory.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	m, ok := identity.MemberFrom(r.Context())
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUnauthorized)
		return
	}
	apierr.JSON(w, http.StatusOK, m)
}
