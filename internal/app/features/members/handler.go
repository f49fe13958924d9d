// internal/app/features/members/handler.go
package members

import (
	"errors"

	memberstore "github.com/dalemusser/committeehub/internal/app/store/members"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the members feature.
type Handler struct {
	DB  *mongo.Database
	Log *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Log: logger}
}

var (
	errMemberNotFound = apierr.New(apierr.NotFound, "member_not_found", "Member not found")
	errSelfChange     = apierr.New(apierr.BadRequest, "cannot_modify_self", "You cannot change your own role or delete yourself")
)

// storeErr maps member store sentinels onto API errors.
func storeErr(err error) error {
	switch {
	case errors.Is(err, memberstore.ErrNotFound):
		return errMemberNotFound
	case errors.Is(err, memberstore.ErrDuplicateEmail):
		return apierr.New(apierr.BadRequest, "duplicate_email", memberstore.ErrDuplicateEmail.Error())
	case errors.Is(err, memberstore.ErrInvalidEmail):
		return apierr.New(apierr.BadRequest, "invalid_email", memberstore.ErrInvalidEmail.Error())
	case errors.Is(err, memberstore.ErrInvalidRole):
		return apierr.New(apierr.BadRequest, "invalid_role", memberstore.ErrInvalidRole.Error())
	}
	return err
}
