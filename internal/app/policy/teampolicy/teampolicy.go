// internal/app/policy/teampolicy/teampolicy.go
package teampolicy

import (
	"github.com/dalemusser/committeehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanManageTeam reports whether actor may edit the team's name, leader
// and roster:
// - Super admins always can
// - Admins can only for teams they lead
// - Members never can
func CanManageTeam(actor models.Member, team models.Team) bool {
	switch actor.Role {
	case models.RoleSuperAdmin:
		return true
	case models.RoleAdmin:
		return team.LedBy(actor.ID)
	case models.RoleMember:
		return false
	}
	return false
}

// ListScope returns the leader id to filter team listings by, or nil when
// actor may see every team.
func ListScope(actor models.Member) *primitive.ObjectID {
	if actor.Role == models.RoleSuperAdmin {
		return nil
	}
	id := actor.ID
	return &id
}
