// internal/app/features/teams/handler.go
package teams

import (
	"errors"

	teamstore "github.com/dalemusser/committeehub/internal/app/store/teams"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/seeds"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the teams feature.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger

	// Defaults loads the seed list for POST /seed.
	Defaults func() ([]seeds.Team, error)
}

// NewHandler constructs a teams Handler that seeds from the embedded
// default team list.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Defaults: seeds.DefaultTeams,
	}
}

var (
	errForbiddenTeam  = apierr.New(apierr.Forbidden, "not_team_leader", "You do not lead this team")
	errUnknownMembers = apierr.New(apierr.BadRequest, "unknown_members", "One or more members do not exist")
)

// storeErr maps team store sentinels onto API errors.
func storeErr(err error) error {
	switch {
	case errors.Is(err, teamstore.ErrNotFound):
		return apierr.ErrTeamNotFound
	case errors.Is(err, teamstore.ErrDuplicateName):
		return apierr.New(apierr.BadRequest, "duplicate_name", teamstore.ErrDuplicateName.Error())
	case errors.Is(err, teamstore.ErrNameRequired):
		return apierr.New(apierr.BadRequest, "name_required", teamstore.ErrNameRequired.Error())
	case errors.Is(err, teamstore.ErrBadDayOfWeek):
		return apierr.New(apierr.BadRequest, "invalid_day_of_week", teamstore.ErrBadDayOfWeek.Error())
	}
	return err
}
