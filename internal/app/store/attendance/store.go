// internal/app/store/attendance/store.go
package attendancestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/committeehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxList caps List results.
const MaxList = 500

// Key identifies one attendance record. A nil EventID is ad-hoc attendance.
type Key struct {
	TeamID  primitive.ObjectID
	Date    string
	EventID *primitive.ObjectID
}

func (k Key) filter() bson.M {
	return bson.M{
		"team_id":   k.TeamID,
		"date":      k.Date,
		"event_key": models.EventKey(k.EventID),
	}
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("attendance")}
}

// Find returns the record for k, or (nil, nil) when none exists.
func (s *Store) Find(ctx context.Context, k Key) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := s.c.FindOne(ctx, k.filter()).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Filter narrows List. Zero fields do not filter. A non-nil TeamIn limits
// results to those teams; an empty TeamIn matches nothing.
type Filter struct {
	TeamIn  *[]primitive.ObjectID
	TeamID  *primitive.ObjectID
	EventID *primitive.ObjectID
	Date    string
	From    string
	To      string
	Limit   int
}

// List returns matching records, newest date first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.AttendanceRecord, error) {
	if f.TeamIn != nil && len(*f.TeamIn) == 0 {
		return []models.AttendanceRecord{}, nil
	}

	q := bson.M{}
	switch {
	case f.TeamID != nil && f.TeamIn != nil:
		if !models.ContainsID(*f.TeamIn, *f.TeamID) {
			return []models.AttendanceRecord{}, nil
		}
		q["team_id"] = *f.TeamID
	case f.TeamID != nil:
		q["team_id"] = *f.TeamID
	case f.TeamIn != nil:
		q["team_id"] = bson.M{"$in": *f.TeamIn}
	}
	if f.EventID != nil {
		q["event_id"] = *f.EventID
	}
	if f.Date != "" {
		q["date"] = f.Date
	} else if f.From != "" || f.To != "" {
		rng := bson.M{}
		if f.From != "" {
			rng["$gte"] = f.From
		}
		if f.To != "" {
			rng["$lte"] = f.To
		}
		q["date"] = rng
	}

	limit := f.Limit
	if limit <= 0 || limit > MaxList {
		limit = MaxList
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.AttendanceRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Full is a leader or admin submission. Present and absent lists replace
// the stored ones; nil optional fields keep their stored values.
type Full struct {
	PresentIDs  []primitive.ObjectID
	AbsentIDs   []primitive.ObjectID
	StartTime   *string
	EndTime     *string
	Notes       *string
	SubmittedBy string
}

// UpsertFull overwrites the record for k, creating it if needed.
func (s *Store) UpsertFull(ctx context.Context, k Key, f Full) (*models.AttendanceRecord, error) {
	now := time.Now().UTC()
	set := bson.M{
		"present_ids":  nonNil(f.PresentIDs),
		"absent_ids":   nonNil(f.AbsentIDs),
		"submitted_by": f.SubmittedBy,
		"updated_at":   now,
	}
	if k.EventID != nil {
		set["event_id"] = *k.EventID
	}
	if f.StartTime != nil {
		set["start_time"] = *f.StartTime
	}
	if f.EndTime != nil {
		set["end_time"] = *f.EndTime
	}
	if f.Notes != nil {
		set["notes"] = *f.Notes
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var rec models.AttendanceRecord
	err := s.c.FindOneAndUpdate(ctx, k.filter(), update, opts).Decode(&rec)
	if wafflemongo.IsDup(err) {
		// A concurrent first write won the insert; the record exists now.
		err = s.c.FindOneAndUpdate(ctx, k.filter(), update, opts).Decode(&rec)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Merge is an additive submission: PresentIDs are marked present and
// removed from absent. Nothing else already recorded changes. When the
// record does not exist yet it is created with everyone else in Roster
// marked absent.
type Merge struct {
	Key         Key
	PresentIDs  []primitive.ObjectID
	Roster      []primitive.ObjectID
	SubmittedBy string
}

// Merge applies m. Concurrent merges for the same key never drop each
// other's entries.
func (s *Store) Merge(ctx context.Context, m Merge) (*models.AttendanceRecord, error) {
	ids := nonNil(m.PresentIDs)

	rec, err := s.mergeExisting(ctx, m, ids)
	if err != nil || rec != nil {
		return rec, err
	}

	now := time.Now().UTC()
	absent := []primitive.ObjectID{}
	for _, id := range m.Roster {
		if !models.ContainsID(ids, id) && !models.ContainsID(absent, id) {
			absent = append(absent, id)
		}
	}
	created := models.AttendanceRecord{
		ID:          primitive.NewObjectID(),
		EventID:     m.Key.EventID,
		EventKey:    models.EventKey(m.Key.EventID),
		TeamID:      m.Key.TeamID,
		Date:        m.Key.Date,
		SubmittedBy: m.SubmittedBy,
		PresentIDs:  dedupe(ids),
		AbsentIDs:   absent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = s.c.InsertOne(ctx, created)
	if wafflemongo.IsDup(err) {
		rec, err = s.mergeExisting(ctx, m, ids)
		if err == nil && rec == nil {
			err = mongo.ErrNoDocuments
		}
		return rec, err
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) mergeExisting(ctx context.Context, m Merge, ids []primitive.ObjectID) (*models.AttendanceRecord, error) {
	update := bson.M{
		"$addToSet": bson.M{"present_ids": bson.M{"$each": ids}},
		"$pull":     bson.M{"absent_ids": bson.M{"$in": ids}},
		"$set": bson.M{
			"submitted_by": m.SubmittedBy,
			"updated_at":   time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec models.AttendanceRecord
	err := s.c.FindOneAndUpdate(ctx, m.Key.filter(), update, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func nonNil(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !models.ContainsID(out, id) {
			out = append(out, id)
		}
	}
	return out
}
