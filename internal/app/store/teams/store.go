// internal/app/store/teams/store.go
package teamstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/committeehub/internal/app/system/normalize"
	"github.com/dalemusser/committeehub/internal/app/system/seeds"
	"github.com/dalemusser/committeehub/internal/app/system/txn"
	"github.com/dalemusser/committeehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when the team does not exist.
	ErrNotFound = errors.New("team not found")
	// ErrDuplicateName is returned when another team already uses the name
	// (compared case-insensitively).
	ErrDuplicateName = errors.New("a team with this name already exists")
	// ErrNameRequired is returned when a team name is empty after trimming.
	ErrNameRequired = errors.New("team name is required")
	// ErrBadDayOfWeek is returned for a day_of_week outside 0..6.
	ErrBadDayOfWeek = errors.New("day of week must be between 0 and 6")
)

// Store owns team documents and the derived team_ids index on members.
type Store struct {
	db      *mongo.Database
	c       *mongo.Collection
	members *mongo.Collection
	events  *mongo.Collection
	log     *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:      db,
		c:       db.Collection("teams"),
		members: db.Collection("members"),
		events:  db.Collection("events"),
		log:     log,
	}
}

// Lookup loads a team by id. It returns (nil, nil) when missing.
func (s *Store) Lookup(ctx context.Context, id primitive.ObjectID) (*models.Team, error) {
	var t models.Team
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID loads a team, returning ErrNotFound when missing.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Team, error) {
	t, err := s.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// List returns every team sorted by name.
func (s *Store) List(ctx context.Context) ([]models.Team, error) {
	return s.find(ctx, bson.M{})
}

// ListLedBy returns the teams whose leader is leaderID.
func (s *Store) ListLedBy(ctx context.Context, leaderID primitive.ObjectID) ([]models.Team, error) {
	return s.find(ctx, bson.M{"leader_id": leaderID})
}

// ListByIDs returns the teams with the given ids. Unknown ids are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Team, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Team, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Team
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a team and adds its id to each member's team_ids in the
// same batch.
func (s *Store) Create(ctx context.Context, t models.Team) (models.Team, error) {
	t.Name = normalize.Name(t.Name)
	if t.Name == "" {
		return models.Team{}, ErrNameRequired
	}
	if t.DayOfWeek != nil && (*t.DayOfWeek < 0 || *t.DayOfWeek > 6) {
		return models.Team{}, ErrBadDayOfWeek
	}
	t.ID = primitive.NewObjectID()
	t.NameCI = text.Fold(t.Name)
	t.MemberIDs = dedupe(t.MemberIDs)

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, t); err != nil {
			return err
		}
		return s.linkMembers(ctx, t.ID, t.MemberIDs)
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Team{}, ErrDuplicateName
		}
		return models.Team{}, err
	}
	return t, nil
}

// Update describes a partial team change. Nil fields are left untouched.
type Update struct {
	Name        *string
	LeaderID    *primitive.ObjectID
	ClearLeader bool
	MemberIDs   *[]primitive.ObjectID
	DayOfWeek   *int
	IsWrapUp    *bool
}

// Update applies upd and keeps members' team_ids in step with any roster
// change. The team document and the member writes share one batch.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Team, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}

	if upd.Name != nil {
		name := normalize.Name(*upd.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	switch {
	case upd.ClearLeader:
		unset["leader_id"] = ""
	case upd.LeaderID != nil:
		set["leader_id"] = *upd.LeaderID
	}
	if upd.DayOfWeek != nil {
		if *upd.DayOfWeek < 0 || *upd.DayOfWeek > 6 {
			return nil, ErrBadDayOfWeek
		}
		set["day_of_week"] = *upd.DayOfWeek
	}
	if upd.IsWrapUp != nil {
		set["is_wrap_up"] = *upd.IsWrapUp
	}
	var next []primitive.ObjectID
	if upd.MemberIDs != nil {
		next = dedupe(*upd.MemberIDs)
		set["member_ids"] = next
	}

	var updated models.Team
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var cur models.Team
		if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cur); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return err
		}

		doc := bson.M{"$set": set}
		if len(unset) > 0 {
			doc["$unset"] = unset
		}
		if _, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, doc); err != nil {
			return err
		}

		if upd.MemberIDs != nil {
			added, removed := diff(cur.MemberIDs, next)
			if err := s.linkMembers(ctx, id, added); err != nil {
				return err
			}
			if err := s.unlinkMembers(ctx, id, removed); err != nil {
				return err
			}
		}
		return s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&updated)
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes a team, strips its id from every member's team_ids and
// drops it from every event's team_ids and team_overrides.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	overrideKey := "team_overrides." + id.Hex()
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		if _, err := s.members.UpdateMany(ctx,
			bson.M{"team_ids": id},
			bson.M{"$pull": bson.M{"team_ids": id}},
		); err != nil {
			return err
		}
		_, err = s.events.UpdateMany(ctx,
			bson.M{"$or": bson.A{
				bson.M{"team_ids": id},
				bson.M{overrideKey: bson.M{"$exists": true}},
			}},
			bson.M{
				"$pull":  bson.M{"team_ids": id},
				"$unset": bson.M{overrideKey: ""},
			},
		)
		return err
	})
}

// RebuildMemberIndex recomputes every member's team_ids from the teams
// collection, which is the source of truth for membership.
func (s *Store) RebuildMemberIndex(ctx context.Context) error {
	teams, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if _, err := s.members.UpdateMany(ctx, bson.M{},
			bson.M{"$set": bson.M{"team_ids": []primitive.ObjectID{}}}); err != nil {
			return err
		}
		for _, t := range teams {
			if err := s.linkMembers(ctx, t.ID, t.MemberIDs); err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedDefaults creates each default team whose name is not taken yet and
// returns the teams it created. Wrap-up seeds become wrap-up teams.
func (s *Store) SeedDefaults(ctx context.Context, defaults []seeds.Team) ([]models.Team, error) {
	var created []models.Team
	for _, d := range defaults {
		t := models.Team{Name: d.Name, DayOfWeek: d.DayOfWeek, IsWrapUp: d.DayOfWeek != nil}
		got, err := s.Create(ctx, t)
		if errors.Is(err, ErrDuplicateName) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed team %q: %w", d.Name, err)
		}
		created = append(created, got)
	}
	return created, nil
}

func (s *Store) linkMembers(ctx context.Context, teamID primitive.ObjectID, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.members.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$addToSet": bson.M{"team_ids": teamID}},
	)
	return err
}

func (s *Store) unlinkMembers(ctx context.Context, teamID primitive.ObjectID, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.members.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$pull": bson.M{"team_ids": teamID}},
	)
	return err
}

// dedupe keeps the first occurrence of each id and never returns nil.
func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func diff(before, after []primitive.ObjectID) (added, removed []primitive.ObjectID) {
	for _, id := range after {
		if !models.ContainsID(before, id) {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if !models.ContainsID(after, id) {
			removed = append(removed, id)
		}
	}
	return added, removed
}
