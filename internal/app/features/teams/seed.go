package teams

import (
	"context"
	"net/http"

	teamstore "github.com/dalemusser/committeehub/internal/app/store/teams"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type seedResponse struct {
	OK      bool `json:"ok"`
	Created int  `json:"created"`
}

// ServeSeed handles POST /api/teams/seed. Default teams whose names are
// already taken are skipped, so repeating the call is harmless.
func (h *Handler) ServeSeed(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.MemberFrom(r.Context())
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUnauthorized)
		return
	}
	defaults, err := h.Defaults()
	if err != nil {
		apierr.Write(w, h.Log, apierr.Internalf(err, "load default teams"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	created, err := teamstore.New(h.DB, h.Log).SeedDefaults(ctx, defaults)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Internalf(err, "seed teams"))
		return
	}
	h.Log.Info("default teams seeded",
		zap.Int("created", len(created)),
		zap.String("actor_id", actor.ID.Hex()))
	apierr.JSON(w, http.StatusOK, seedResponse{OK: true, Created: len(created)})
}
