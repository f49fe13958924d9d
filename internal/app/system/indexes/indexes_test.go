package indexes_test

import (
	"testing"

	"github.com/dalemusser/committeehub/internal/app/system/indexes"
	"github.com/dalemusser/committeehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// SetupTestDB already ran EnsureAll once.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesNamedIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	expected := map[string][]string{
		"members":          {"uniq_members_email", "idx_members_teamids"},
		"teams":            {"uniq_teams_nameci", "idx_teams_leader"},
		"events":           {"idx_events_datefrom__id"},
		"attendance":       {"uniq_attendance_team_date_event", "idx_attendance_date_desc__id"},
		"attendance_links": {"uniq_attendance_links_secret", "idx_attendance_links_ttl"},
		"oauth_states":     {"idx_oauth_state", "idx_oauth_ttl"},
	}

	for coll, names := range expected {
		t.Run(coll, func(t *testing.T) {
			cur, err := db.Collection(coll).Indexes().List(ctx)
			if err != nil {
				t.Fatalf("List indexes failed: %v", err)
			}
			defer cur.Close(ctx)

			found := make(map[string]bool)
			for cur.Next(ctx) {
				var idx bson.M
				if err := cur.Decode(&idx); err != nil {
					continue
				}
				if name, ok := idx["name"].(string); ok {
					found[name] = true
				}
			}
			for _, n := range names {
				if !found[n] {
					t.Errorf("missing index %s on %s", n, coll)
				}
			}
		})
	}
}

func TestAttendanceKeyIsUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	teamID := primitive.NewObjectID()
	doc := bson.M{"team_id": teamID, "date": "2025-03-05", "event_key": ""}

	c := db.Collection("attendance")
	if _, err := c.InsertOne(ctx, doc); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err := c.InsertOne(ctx, bson.M{"team_id": teamID, "date": "2025-03-05", "event_key": ""})
	if !mongo.IsDuplicateKeyError(err) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}

	// A different event on the same day is a different record.
	if _, err := c.InsertOne(ctx, bson.M{"team_id": teamID, "date": "2025-03-05", "event_key": primitive.NewObjectID().Hex()}); err != nil {
		t.Fatalf("event-scoped insert failed: %v", err)
	}
}
