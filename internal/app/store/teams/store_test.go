package teamstore_test

import (
	"errors"
	"testing"

	eventstore "github.com/dalemusser/committeehub/internal/app/store/events"
	teamstore "github.com/dalemusser/committeehub/internal/app/store/teams"
	"github.com/dalemusser/committeehub/internal/app/system/civildate"
	"github.com/dalemusser/committeehub/internal/app/system/seeds"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/dalemusser/committeehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func memberTeamIDs(t *testing.T, fx *testutil.Fixtures, id primitive.ObjectID) []primitive.ObjectID {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	var m models.Member
	if err := fx.DB().Collection("members").FindOne(ctx, map[string]any{"_id": id}).Decode(&m); err != nil {
		t.Fatalf("load member: %v", err)
	}
	return m.TeamIDs
}

func TestStore_Create_LinksMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := teamstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateMember(ctx, "A", "a@example.com", models.RoleMember)
	b := fx.CreateMember(ctx, "B", "b@example.com", models.RoleMember)

	team, err := store.Create(ctx, models.Team{Name: "  Sound  ", MemberIDs: []primitive.ObjectID{a.ID, b.ID, a.ID}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if team.Name != "Sound" {
		t.Errorf("name = %q, want trimmed", team.Name)
	}
	if len(team.MemberIDs) != 2 {
		t.Errorf("member_ids = %v, want deduped", team.MemberIDs)
	}
	for _, id := range []primitive.ObjectID{a.ID, b.ID} {
		if !models.ContainsID(memberTeamIDs(t, fx, id), team.ID) {
			t.Errorf("member %s missing team back-reference", id.Hex())
		}
	}
}

func TestStore_Create_DuplicateName(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.Team{Name: "Hospitality"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.Team{Name: "HOSPITALITY"})
	if !errors.Is(err, teamstore.ErrDuplicateName) {
		t.Errorf("err = %v, want ErrDuplicateName", err)
	}
	if _, err := store.Create(ctx, models.Team{Name: "   "}); !errors.Is(err, teamstore.ErrNameRequired) {
		t.Errorf("err = %v, want ErrNameRequired", err)
	}
	bad := 9
	if _, err := store.Create(ctx, models.Team{Name: "Wrap", DayOfWeek: &bad}); !errors.Is(err, teamstore.ErrBadDayOfWeek) {
		t.Errorf("err = %v, want ErrBadDayOfWeek", err)
	}
}

func TestStore_Update_SyncsBackReferences(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := teamstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateMember(ctx, "A", "a@example.com", models.RoleMember)
	b := fx.CreateMember(ctx, "B", "b@example.com", models.RoleMember)
	c := fx.CreateMember(ctx, "C", "c@example.com", models.RoleMember)
	leader := fx.CreateMember(ctx, "L", "l@example.com", models.RoleAdmin)
	team := fx.CreateTeam(ctx, "Security", nil, a.ID, b.ID)

	name := "Security Crew"
	next := []primitive.ObjectID{b.ID, c.ID}
	got, err := store.Update(ctx, team.ID, teamstore.Update{
		Name:      &name,
		LeaderID:  &leader.ID,
		MemberIDs: &next,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Name != name || !got.LedBy(leader.ID) {
		t.Errorf("update not applied: %+v", got)
	}
	if models.ContainsID(memberTeamIDs(t, fx, a.ID), team.ID) {
		t.Error("removed member still references team")
	}
	if !models.ContainsID(memberTeamIDs(t, fx, b.ID), team.ID) {
		t.Error("kept member lost team reference")
	}
	if !models.ContainsID(memberTeamIDs(t, fx, c.ID), team.ID) {
		t.Error("added member missing team reference")
	}

	got, err = store.Update(ctx, team.ID, teamstore.Update{ClearLeader: true})
	if err != nil {
		t.Fatalf("Update(clear leader) failed: %v", err)
	}
	if got.LeaderID != nil {
		t.Errorf("leader = %v, want cleared", got.LeaderID)
	}

	if _, err := store.Update(ctx, primitive.NewObjectID(), teamstore.Update{Name: &name}); !errors.Is(err, teamstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete_Cascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := teamstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateMember(ctx, "A", "a@example.com", models.RoleMember)
	keep := fx.CreateTeam(ctx, "Keep", nil, a.ID)
	drop := fx.CreateTeam(ctx, "Drop", nil, a.ID)

	if err := store.Delete(ctx, drop.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	ids := memberTeamIDs(t, fx, a.ID)
	if models.ContainsID(ids, drop.ID) || !models.ContainsID(ids, keep.ID) {
		t.Errorf("team_ids after delete = %v", ids)
	}
	if err := store.Delete(ctx, drop.ID); !errors.Is(err, teamstore.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete_PrunesEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := teamstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateMember(ctx, "A", "a@example.com", models.RoleMember)
	keep := fx.CreateTeam(ctx, "Keep", nil, a.ID)
	drop := fx.CreateTeam(ctx, "Drop", nil, a.ID)
	ev := fx.CreateEvent(ctx, "Ashara", "2025-03-01", "2025-03-10", keep.ID, drop.ID)

	override := []primitive.ObjectID{a.ID}
	overrides := map[string]models.TeamOverride{
		keep.ID.Hex(): {MemberIDs: &override},
		drop.ID.Hex(): {MemberIDs: &override},
	}
	if _, err := db.Collection("events").UpdateByID(ctx, ev.ID,
		map[string]any{"$set": map[string]any{"team_overrides": overrides}}); err != nil {
		t.Fatalf("set overrides: %v", err)
	}

	if err := store.Delete(ctx, drop.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var got models.Event
	if err := db.Collection("events").FindOne(ctx, map[string]any{"_id": ev.ID}).Decode(&got); err != nil {
		t.Fatalf("load event: %v", err)
	}
	if len(got.TeamIDs) != 1 || got.TeamIDs[0] != keep.ID {
		t.Errorf("team_ids = %v, want [%s]", got.TeamIDs, keep.ID.Hex())
	}
	if _, ok := got.TeamOverrides[drop.ID.Hex()]; ok {
		t.Error("override for the deleted team was kept")
	}
	if _, ok := got.TeamOverrides[keep.ID.Hex()]; !ok {
		t.Error("override for the remaining team was dropped")
	}

	// The event stays editable once its team list is consistent again.
	start, end := "18:00", "22:30"
	upd := eventstore.Update{OverallStartTime: &start, OverallEndTime: &end}
	if _, err := eventstore.New(db).Update(ctx, ev.ID, upd, civildate.Fixed("2025-04-01")); err != nil {
		t.Errorf("event update after team delete: %v", err)
	}
}

func TestStore_RebuildMemberIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := teamstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateMember(ctx, "A", "a@example.com", models.RoleMember)
	team := fx.CreateTeam(ctx, "Stage", nil, a.ID)
	stale := primitive.NewObjectID()
	if _, err := db.Collection("members").UpdateByID(ctx, a.ID,
		map[string]any{"$set": map[string]any{"team_ids": []primitive.ObjectID{stale}}}); err != nil {
		t.Fatalf("corrupt index: %v", err)
	}

	if err := store.RebuildMemberIndex(ctx); err != nil {
		t.Fatalf("RebuildMemberIndex failed: %v", err)
	}
	ids := memberTeamIDs(t, fx, a.ID)
	if len(ids) != 1 || ids[0] != team.ID {
		t.Errorf("team_ids = %v, want [%s]", ids, team.ID.Hex())
	}
}

func TestStore_SeedDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := teamstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	defaults, err := seeds.DefaultTeams()
	if err != nil {
		t.Fatalf("DefaultTeams: %v", err)
	}
	if _, err := store.Create(ctx, models.Team{Name: defaults[0].Name}); err != nil {
		t.Fatalf("pre-create: %v", err)
	}

	created, err := store.SeedDefaults(ctx, defaults)
	if err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}
	if len(created) != len(defaults)-1 {
		t.Errorf("created %d teams, want %d", len(created), len(defaults)-1)
	}
	wrapUps := 0
	for _, tm := range created {
		if tm.IsWrapUp {
			wrapUps++
			if tm.DayOfWeek == nil {
				t.Errorf("wrap-up team %q has no day_of_week", tm.Name)
			}
		}
	}
	if wrapUps != 7 {
		t.Errorf("wrap-up teams = %d, want 7", wrapUps)
	}

	again, err := store.SeedDefaults(ctx, defaults)
	if err != nil || len(again) != 0 {
		t.Errorf("second SeedDefaults = %d teams, %v; want none", len(again), err)
	}
}
