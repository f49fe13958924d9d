package teampolicy

import (
	"testing"

	"github.com/dalemusser/committeehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanManageTeam(t *testing.T) {
	leader := models.Member{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	team := models.Team{ID: primitive.NewObjectID(), LeaderID: &leader.ID}

	tests := []struct {
		name  string
		actor models.Member
		want  bool
	}{
		{"super admin", models.Member{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin}, true},
		{"leading admin", leader, true},
		{"other admin", models.Member{ID: primitive.NewObjectID(), Role: models.RoleAdmin}, false},
		{"member", models.Member{ID: primitive.NewObjectID(), Role: models.RoleMember}, false},
		{"leader demoted to member", models.Member{ID: leader.ID, Role: models.RoleMember}, false},
		{"unknown role", models.Member{ID: leader.ID, Role: "owner"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanManageTeam(tt.actor, team); got != tt.want {
				t.Errorf("CanManageTeam = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListScope(t *testing.T) {
	if ListScope(models.Member{Role: models.RoleSuperAdmin}) != nil {
		t.Error("super admin should see every team")
	}
	admin := models.Member{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	if got := ListScope(admin); got == nil || *got != admin.ID {
		t.Errorf("admin scope = %+v, want the admin", got)
	}
}
