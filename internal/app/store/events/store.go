// internal/app/store/events/store.go
package eventstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/committeehub/internal/app/system/civildate"
	"github.com/dalemusser/committeehub/internal/app/system/normalize"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxList caps List results.
const MaxList = 100

const clockLayout = "15:04"

var (
	ErrNotFound      = errors.New("event not found")
	ErrNameRequired  = errors.New("event name is required")
	ErrInvalidRange  = errors.New("dateFrom must be on or before dateTo")
	ErrUnknownTeams  = errors.New("one or more teams do not exist")
	ErrBadOverride   = errors.New("team overrides must reference teams in the event")
	ErrBadClockTime  = errors.New("overall times must be HH:MM")
	ErrEventNotEnded = errors.New("overall start and end times can only be set after the event has ended")
)

type Store struct {
	c     *mongo.Collection
	teams *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events"), teams: db.Collection("teams")}
}

// Lookup loads an event by id. It returns (nil, nil) when missing.
func (s *Store) Lookup(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	var ev models.Event
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// GetByID loads an event, returning ErrNotFound when missing.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Event, error) {
	ev, err := s.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrNotFound
	}
	return ev, nil
}

// ListOptions filters List. With EndingAfter set only events whose date_to
// is at or after that instant are returned, earliest first; otherwise the
// newest events come first.
type ListOptions struct {
	EndingAfter *time.Time
	Limit       int
}

func (s *Store) List(ctx context.Context, o ListOptions) ([]models.Event, error) {
	limit := o.Limit
	if limit <= 0 || limit > MaxList {
		limit = MaxList
	}

	filter := bson.M{}
	sort := bson.D{{Key: "date_from", Value: -1}, {Key: "_id", Value: -1}}
	if o.EndingAfter != nil {
		filter["date_to"] = bson.M{"$gte": *o.EndingAfter}
		sort = bson.D{{Key: "date_from", Value: 1}, {Key: "_id", Value: 1}}
	}

	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(sort).SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create validates and inserts an event. Overall times are not accepted at
// creation; they are recorded with Update once the event is over.
func (s *Store) Create(ctx context.Context, ev models.Event) (models.Event, error) {
	ev.ID = primitive.NewObjectID()
	ev.Name = normalize.Name(ev.Name)
	ev.OverallStartTime = ""
	ev.OverallEndTime = ""
	if ev.TeamIDs == nil {
		ev.TeamIDs = []primitive.ObjectID{}
	}
	if err := s.validate(ctx, ev); err != nil {
		return models.Event{}, err
	}

	now := time.Now().UTC()
	ev.CreatedAt = now
	ev.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

// Update is a partial event change. Nil fields are left untouched.
type Update struct {
	Name             *string
	DateFrom         *time.Time
	DateTo           *time.Time
	TeamIDs          *[]primitive.ObjectID
	TeamOverrides    *map[string]models.TeamOverride
	OverallStartTime *string
	OverallEndTime   *string
}

func (u Update) setsOverall() bool {
	return (u.OverallStartTime != nil && *u.OverallStartTime != "") ||
		(u.OverallEndTime != nil && *u.OverallEndTime != "")
}

// Update applies upd. Overall start and end times can only be set when the
// event's end date, as a civil date in clock's location, is on or before
// clock's today.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update, clock civildate.Clock) (*models.Event, error) {
	ev, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		ev.Name = normalize.Name(*upd.Name)
	}
	if upd.DateFrom != nil {
		ev.DateFrom = *upd.DateFrom
	}
	if upd.DateTo != nil {
		ev.DateTo = *upd.DateTo
	}
	if upd.TeamIDs != nil {
		ev.TeamIDs = *upd.TeamIDs
		if ev.TeamIDs == nil {
			ev.TeamIDs = []primitive.ObjectID{}
		}
		if upd.TeamOverrides == nil {
			for key := range ev.TeamOverrides {
				if id, err := primitive.ObjectIDFromHex(key); err != nil || !ev.IncludesTeam(id) {
					delete(ev.TeamOverrides, key)
				}
			}
		}
	}
	if upd.TeamOverrides != nil {
		ev.TeamOverrides = *upd.TeamOverrides
	}
	if upd.OverallStartTime != nil {
		ev.OverallStartTime = *upd.OverallStartTime
	}
	if upd.OverallEndTime != nil {
		ev.OverallEndTime = *upd.OverallEndTime
	}

	if upd.setsOverall() {
		end := civildate.Of(ev.DateTo, clock.Location())
		if civildate.After(end, clock.Today()) {
			return nil, ErrEventNotEnded
		}
	}
	if err := s.validate(ctx, *ev); err != nil {
		return nil, err
	}

	ev.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"name":               ev.Name,
		"date_from":          ev.DateFrom,
		"date_to":            ev.DateTo,
		"team_ids":           ev.TeamIDs,
		"team_overrides":     ev.TeamOverrides,
		"overall_start_time": ev.OverallStartTime,
		"overall_end_time":   ev.OverallEndTime,
		"updated_at":         ev.UpdatedAt,
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return ev, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) validate(ctx context.Context, ev models.Event) error {
	if ev.Name == "" {
		return ErrNameRequired
	}
	if ev.DateFrom.After(ev.DateTo) {
		return ErrInvalidRange
	}
	for _, t := range []string{ev.OverallStartTime, ev.OverallEndTime} {
		if t == "" {
			continue
		}
		if _, err := time.Parse(clockLayout, t); err != nil {
			return ErrBadClockTime
		}
	}
	for key := range ev.TeamOverrides {
		id, err := primitive.ObjectIDFromHex(key)
		if err != nil || !ev.IncludesTeam(id) {
			return ErrBadOverride
		}
	}
	return s.teamsExist(ctx, ev.TeamIDs)
}

func (s *Store) teamsExist(ctx context.Context, ids []primitive.ObjectID) error {
	uniq := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		uniq[id] = struct{}{}
	}
	if len(uniq) == 0 {
		return nil
	}
	n, err := s.teams.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	if int(n) != len(uniq) {
		return ErrUnknownTeams
	}
	return nil
}
