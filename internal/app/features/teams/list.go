package teams

import (
	"context"
	"net/http"

	"github.com/dalemusser/committeehub/internal/app/policy/teampolicy"
	teamstore "github.com/dalemusser/committeehub/internal/app/store/teams"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"github.com/dalemusser/committeehub/internal/domain/models"
)

type listResponse struct {
	Teams []models.Team `json:"teams"`
}

// ServeList handles GET /api/teams. Admins only see the teams they lead.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.MemberFrom(r.Context())
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := teamstore.New(h.DB, h.Log)
	var (
		teams []models.Team
		err   error
	)
	if leader := teampolicy.ListScope(*actor); leader != nil {
		teams, err = store.ListLedBy(ctx, *leader)
	} else {
		teams, err = store.List(ctx)
	}
	if err != nil {
		apierr.Write(w, h.Log, apierr.Internalf(err, "list teams"))
		return
	}
	if teams == nil {
		teams = []models.Team{}
	}
	apierr.JSON(w, http.StatusOK, listResponse{Teams: teams})
}
