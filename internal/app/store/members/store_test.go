package memberstore_test

import (
	"errors"
	"testing"

	memberstore "github.com/dalemusser/committeehub/internal/app/store/members"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/dalemusser/committeehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Member{
		Email:     "  Ali@Example.COM ",
		Title:     "bhai",
		FirstName: "Ali",
		LastName:  "Hussain",
		Role:      models.RoleMember,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.Email != "ali@example.com" {
		t.Errorf("email = %q, want lowercased", created.Email)
	}
	if created.Name != "bhai Ali Hussain" {
		t.Errorf("name = %q, want composed name", created.Name)
	}
	if created.TeamIDs == nil {
		t.Error("team_ids should be an empty list, not nil")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_Create_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, email := range []string{"", "not-an-email", "Name <n@example.com>"} {
		if _, err := store.Create(ctx, models.Member{Email: email, Role: models.RoleMember}); !errors.Is(err, memberstore.ErrInvalidEmail) {
			t.Errorf("Create(%q) err = %v, want ErrInvalidEmail", email, err)
		}
	}
	if _, err := store.Create(ctx, models.Member{Email: "x@example.com", Role: "leader"}); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Member{Email: "dup@example.com", Role: models.RoleMember}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.Member{Email: "DUP@example.com", Role: models.RoleAdmin})
	if !errors.Is(err, memberstore.ErrDuplicateEmail) {
		t.Errorf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_FindByEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Member{Email: "sara@example.com", Name: "Sara", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.FindByEmail(ctx, "SARA@example.com ")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Fatalf("FindByEmail returned %+v", got)
	}

	missing, err := store.FindByEmail(ctx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for unknown email, got (%v, %v)", missing, err)
	}
}

func TestStore_IsEmpty_And_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	empty, err := store.IsEmpty(ctx)
	if err != nil || !empty {
		t.Fatalf("IsEmpty on fresh db = %v, %v", empty, err)
	}
	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, memberstore.ErrNotFound) {
		t.Errorf("GetByID err = %v, want ErrNotFound", err)
	}

	m, _ := store.Create(ctx, models.Member{Email: "a@example.com", Role: models.RoleMember})
	empty, _ = store.IsEmpty(ctx)
	if empty {
		t.Error("IsEmpty should be false after Create")
	}
	got, err := store.GetByID(ctx, m.ID)
	if err != nil || got.Email != "a@example.com" {
		t.Errorf("GetByID = %+v, %v", got, err)
	}
}

func TestStore_ListByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a, _ := store.Create(ctx, models.Member{Email: "a@example.com", Role: models.RoleMember})
	b, _ := store.Create(ctx, models.Member{Email: "b@example.com", Role: models.RoleMember})
	_, _ = store.Create(ctx, models.Member{Email: "c@example.com", Role: models.RoleMember})

	got, err := store.ListByIDs(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("ListByIDs failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 members, got %d", len(got))
	}

	none, err := store.ListByIDs(ctx, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("ListByIDs(nil) = %v, %v", none, err)
	}
}

func strPtr(s string) *string { return &s }

func TestStore_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.Member{Email: "zainab@example.com", FirstName: "Zainab", Role: models.RoleMember})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	admin := models.RoleAdmin
	got, err := store.Update(ctx, m.ID, memberstore.Update{
		LastName: strPtr("  Qureshi "),
		Phone:    strPtr(" 555-0100 "),
		Role:     &admin,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Name != "Zainab Qureshi" || got.LastName != "Qureshi" {
		t.Errorf("name = %q last = %q, want recomposed", got.Name, got.LastName)
	}
	if got.Phone != "555-0100" || got.Role != models.RoleAdmin {
		t.Errorf("phone = %q role = %q", got.Phone, got.Role)
	}

	stored, err := store.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if stored.Name != "Zainab Qureshi" || stored.Role != models.RoleAdmin {
		t.Errorf("stored = %+v", stored)
	}

	// Clearing every name part falls back to the email.
	got, err = store.Update(ctx, m.ID, memberstore.Update{FirstName: strPtr(""), LastName: strPtr("")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Name != "zainab@example.com" {
		t.Errorf("name = %q, want email fallback", got.Name)
	}

	bad := models.Role("leader")
	if _, err := store.Update(ctx, m.ID, memberstore.Update{Role: &bad}); !errors.Is(err, memberstore.ErrInvalidRole) {
		t.Errorf("bad role err = %v, want ErrInvalidRole", err)
	}
	if _, err := store.Update(ctx, primitive.NewObjectID(), memberstore.Update{}); !errors.Is(err, memberstore.ErrNotFound) {
		t.Errorf("missing member err = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete_DetachesFromTeams(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	lead := fx.CreateMember(ctx, "Lead", "lead@example.com", models.RoleAdmin)
	other := fx.CreateMember(ctx, "Other", "other@example.com", models.RoleMember)
	team := fx.CreateTeam(ctx, "Kitchen", &lead.ID, lead.ID, other.ID)

	if err := store.Delete(ctx, lead.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var got models.Team
	if err := db.Collection("teams").FindOne(ctx, bson.M{"_id": team.ID}).Decode(&got); err != nil {
		t.Fatalf("load team: %v", err)
	}
	if got.LeaderID != nil {
		t.Errorf("leader_id = %v, want cleared", got.LeaderID)
	}
	if len(got.MemberIDs) != 1 || got.MemberIDs[0] != other.ID {
		t.Errorf("member_ids = %v, want only %s", got.MemberIDs, other.ID.Hex())
	}

	if err := store.Delete(ctx, lead.ID); !errors.Is(err, memberstore.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}
