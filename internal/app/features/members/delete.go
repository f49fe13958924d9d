package members

import (
	"context"
	"net/http"

	memberstore "github.com/dalemusser/committeehub/internal/app/store/members"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/app/system/inputval"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeDelete handles DELETE /api/members/{id}. The member leaves every
// team roster and loses any leadership in the same batch.
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
	if id == actor.ID {
		apierr.Write(w, h.Log, errSelfChange)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := memberstore.New(h.DB).Delete(ctx, id); err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	h.Log.Info("member deleted",
		zap.String("member_id", id.Hex()),
		zap.String("actor_id", actor.ID.Hex()))
	apierr.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
