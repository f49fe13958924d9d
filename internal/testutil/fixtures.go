package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateMember inserts a member with the given display name, email and role.
func (f *Fixtures) CreateMember(ctx context.Context, name, email string, role models.Role) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Member{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Name:      name,
		NameCI:    text.Fold(name),
		Role:      role,
		TeamIDs:   []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}

// CreateTeam inserts a team and records the team on each member's team_ids.
// leader may be nil.
func (f *Fixtures) CreateTeam(ctx context.Context, name string, leader *primitive.ObjectID, memberIDs ...primitive.ObjectID) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	if memberIDs == nil {
		memberIDs = []primitive.ObjectID{}
	}
	team := models.Team{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		LeaderID:  leader,
		MemberIDs: memberIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("teams").InsertOne(ctx, team); err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	if len(memberIDs) > 0 {
		_, err := f.db.Collection("members").UpdateMany(ctx,
			bson.M{"_id": bson.M{"$in": memberIDs}},
			bson.M{"$addToSet": bson.M{"team_ids": team.ID}},
		)
		if err != nil {
			f.t.Fatalf("failed to link team members: %v", err)
		}
	}
	return team
}

// CreateEvent inserts an event spanning from..to (YYYY-MM-DD, UTC) that
// includes the given teams.
func (f *Fixtures) CreateEvent(ctx context.Context, name, from, to string, teamIDs ...primitive.ObjectID) models.Event {
	f.t.Helper()

	df, err := time.Parse("2006-01-02", from)
	if err != nil {
		f.t.Fatalf("bad event start %q: %v", from, err)
	}
	dt, err := time.Parse("2006-01-02", to)
	if err != nil {
		f.t.Fatalf("bad event end %q: %v", to, err)
	}
	if teamIDs == nil {
		teamIDs = []primitive.ObjectID{}
	}

	now := time.Now().UTC()
	ev := models.Event{
		ID:        primitive.NewObjectID(),
		Name:      name,
		DateFrom:  df,
		DateTo:    dt,
		TeamIDs:   teamIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("events").InsertOne(ctx, ev); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return ev
}
