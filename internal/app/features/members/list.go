package members

import (
	"context"
	"net/http"

	memberstore "github.com/dalemusser/committeehub/internal/app/store/members"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"github.com/dalemusser/committeehub/internal/domain/models"
)

type listResponse struct {
	Members []models.Member `json:"members"`
}

// ServeList handles GET /api/members, sorted by name.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	members, err := memberstore.New(h.DB).List(ctx)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Internalf(err, "list members"))
		return
	}
	if members == nil {
		members = []models.Member{}
	}
	apierr.JSON(w, http.StatusOK, listResponse{Members: members})
}
