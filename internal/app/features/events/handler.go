// internal/app/features/events/handler.go
package events

import (
	"errors"
	"strings"
	"time"

	eventstore "github.com/dalemusser/committeehub/internal/app/store/events"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/civildate"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the events feature.
// Clock decides "upcoming" and whether an event has ended.
type Handler struct {
	DB    *mongo.Database
	Clock civildate.Clock
	Log   *zap.Logger
}

// NewHandler constructs an events Handler.
func NewHandler(db *mongo.Database, clock civildate.Clock, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Clock: clock,
		Log:   logger,
	}
}

var errInvalidInstant = apierr.New(apierr.BadRequest, "invalid_date", "Dates must be YYYY-MM-DD or RFC 3339")

// parseInstant accepts an RFC 3339 timestamp or a civil date, which is
// taken as midnight in loc.
func parseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation(civildate.Layout, s, loc); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errInvalidInstant
}

// storeErr maps event store sentinels onto API errors.
func storeErr(err error) error {
	bad := func(reason string) error {
		return apierr.New(apierr.BadRequest, reason, err.Error())
	}
	switch {
	case errors.Is(err, eventstore.ErrNotFound):
		return apierr.ErrEventNotFound
	case errors.Is(err, eventstore.ErrNameRequired):
		return bad("name_required")
	case errors.Is(err, eventstore.ErrInvalidRange):
		return bad("invalid_range")
	case errors.Is(err, eventstore.ErrUnknownTeams):
		return bad("unknown_teams")
	case errors.Is(err, eventstore.ErrBadOverride):
		return bad("invalid_override")
	case errors.Is(err, eventstore.ErrBadClockTime):
		return bad("invalid_time")
	case errors.Is(err, eventstore.ErrEventNotEnded):
		return apierr.New(apierr.Forbidden, "event_not_ended", err.Error())
	}
	return err
}
