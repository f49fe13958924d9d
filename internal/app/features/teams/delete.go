package teams

import (
	"context"
	"net/http"

	teamstore "github.com/dalemusser/committeehub/internal/app/store/teams"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/app/system/inputval"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeDelete handles DELETE /api/teams/{id}. The team's id is removed
// from every member's team_ids in the same batch.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.MemberFrom(r.Context())
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUnauthorized)
		return
	}
	id, err := inputval.ObjectID(chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := teamstore.New(h.DB, h.Log).Delete(ctx, id); err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	h.Log.Info("team deleted",
		zap.String("team_id", id.Hex()),
		zap.String("actor_id", actor.ID.Hex()))
	apierr.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
