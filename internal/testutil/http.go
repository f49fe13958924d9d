package testutil

import (
	"net/http"

	"github.com/dalemusser/committeehub/internal/app/system/auth"
	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/domain/models"
)

// WithMember returns r carrying m as the resolved caller, as the identity
// middleware would leave it.
func WithMember(r *http.Request, m models.Member) *http.Request {
	ctx := auth.WithPrincipal(r.Context(), auth.Principal{Email: m.Email, Name: m.Name})
	return r.WithContext(identity.WithMember(ctx, &m))
}
