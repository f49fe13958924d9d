package events

import (
	"context"
	"net/http"
	"strconv"
	"time"

	eventstore "github.com/dalemusser/committeehub/internal/app/store/events"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/civildate"
	"github.com/dalemusser/committeehub/internal/app/system/normalize"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"github.com/dalemusser/committeehub/internal/domain/models"
)

const defaultLimit = 50

var errInvalidLimit = apierr.New(apierr.BadRequest, "invalid_limit", "limit must be a positive number")

type listResponse struct {
	Events []models.Event `json:"events"`
}

// ServeList handles GET /api/events?upcoming=true&limit=N.
//
// Without upcoming the newest events come first. With upcoming, events
// that end today or later are returned soonest first. limit defaults to
// 50 and is capped at eventstore.MaxList.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultLimit
	if raw := normalize.QueryParam(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			apierr.Write(w, h.Log, errInvalidLimit)
			return
		}
		limit = min(n, eventstore.MaxList)
	}

	opts := eventstore.ListOptions{Limit: limit}
	if q.Get("upcoming") == "true" {
		start, err := time.ParseInLocation(civildate.Layout, h.Clock.Today(), h.Clock.Location())
		if err != nil {
			apierr.Write(w, h.Log, apierr.Internalf(err, "today"))
			return
		}
		opts.EndingAfter = &start
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	evs, err := eventstore.New(h.DB).List(ctx, opts)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Internalf(err, "list events"))
		return
	}
	if evs == nil {
		evs = []models.Event{}
	}
	apierr.JSON(w, http.StatusOK, listResponse{Events: evs})
}
