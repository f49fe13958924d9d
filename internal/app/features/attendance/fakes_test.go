package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	attendancestore "github.com/dalemusser/committeehub/internal/app/store/attendance"
	"github.com/dalemusser/committeehub/internal/app/store/attendancelinks"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMembers struct{ byID map[primitive.ObjectID]models.Member }

func (f *fakeMembers) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Member, error) {
	var out []models.Member
	for _, id := range ids {
		if m, ok := f.byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeTeams struct{ byID map[primitive.ObjectID]models.Team }

func (f *fakeTeams) Lookup(_ context.Context, id primitive.ObjectID) (*models.Team, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeTeams) ListLedBy(_ context.Context, leaderID primitive.ObjectID) ([]models.Team, error) {
	var out []models.Team
	for _, t := range f.byID {
		if t.LedBy(leaderID) {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeEvents struct{ byID map[primitive.ObjectID]models.Event }

func (f *fakeEvents) Lookup(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	ev, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &ev, nil
}

// fakeRecords mirrors the Mongo store's key and merge semantics.
type fakeRecords struct {
	mu     sync.Mutex
	byKey  map[string]*models.AttendanceRecord
	writes int
}

func recordKey(k attendancestore.Key) string {
	return k.TeamID.Hex() + "|" + k.Date + "|" + models.EventKey(k.EventID)
}

func (f *fakeRecords) Find(_ context.Context, k attendancestore.Key) (*models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.byKey[recordKey(k)]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRecords) List(_ context.Context, q attendancestore.Filter) ([]models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.AttendanceRecord{}
	for _, rec := range f.byKey {
		if q.TeamIn != nil && !models.ContainsID(*q.TeamIn, rec.TeamID) {
			continue
		}
		if q.TeamID != nil && rec.TeamID != *q.TeamID {
			continue
		}
		if q.EventID != nil && (rec.EventID == nil || *rec.EventID != *q.EventID) {
			continue
		}
		if q.Date != "" && rec.Date != q.Date {
			continue
		}
		if q.From != "" && rec.Date < q.From {
			continue
		}
		if q.To != "" && rec.Date > q.To {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (f *fakeRecords) UpsertFull(_ context.Context, k attendancestore.Key, full attendancestore.Full) (*models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	rec := f.getOrCreate(k)
	rec.PresentIDs = append([]primitive.ObjectID{}, full.PresentIDs...)
	rec.AbsentIDs = append([]primitive.ObjectID{}, full.AbsentIDs...)
	if full.StartTime != nil {
		rec.StartTime = *full.StartTime
	}
	if full.EndTime != nil {
		rec.EndTime = *full.EndTime
	}
	if full.Notes != nil {
		rec.Notes = *full.Notes
	}
	rec.SubmittedBy = full.SubmittedBy
	cp := *rec
	return &cp, nil
}

func (f *fakeRecords) Merge(_ context.Context, m attendancestore.Merge) (*models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	rec, ok := f.byKey[recordKey(m.Key)]
	if !ok {
		rec = f.getOrCreate(m.Key)
		for _, id := range m.Roster {
			if !models.ContainsID(m.PresentIDs, id) {
				rec.AbsentIDs = append(rec.AbsentIDs, id)
			}
		}
	}
	for _, id := range m.PresentIDs {
		if !models.ContainsID(rec.PresentIDs, id) {
			rec.PresentIDs = append(rec.PresentIDs, id)
		}
		kept := rec.AbsentIDs[:0]
		for _, a := range rec.AbsentIDs {
			if a != id {
				kept = append(kept, a)
			}
		}
		rec.AbsentIDs = kept
	}
	rec.SubmittedBy = m.SubmittedBy
	cp := *rec
	return &cp, nil
}

func (f *fakeRecords) getOrCreate(k attendancestore.Key) *models.AttendanceRecord {
	if f.byKey == nil {
		f.byKey = map[string]*models.AttendanceRecord{}
	}
	rec, ok := f.byKey[recordKey(k)]
	if !ok {
		rec = &models.AttendanceRecord{
			ID:         primitive.NewObjectID(),
			EventID:    k.EventID,
			EventKey:   models.EventKey(k.EventID),
			TeamID:     k.TeamID,
			Date:       k.Date,
			PresentIDs: []primitive.ObjectID{},
			AbsentIDs:  []primitive.ObjectID{},
		}
		f.byKey[recordKey(k)] = rec
	}
	return rec
}

type fakeLinks struct {
	byHash map[string]models.AttendanceLink
	now    time.Time
}

func (f *fakeLinks) Create(_ context.Context, teamID primitive.ObjectID, by *primitive.ObjectID) (string, models.AttendanceLink, error) {
	if f.byHash == nil {
		f.byHash = map[string]models.AttendanceLink{}
	}
	secret := primitive.NewObjectID().Hex()
	link := models.AttendanceLink{
		ID:         primitive.NewObjectID(),
		TeamID:     teamID,
		SecretHash: attendancelinks.Hash(secret),
		ExpiresAt:  f.now.Add(attendancelinks.TTL),
		CreatedBy:  by,
		CreatedAt:  f.now,
	}
	f.byHash[link.SecretHash] = link
	return secret, link, nil
}

func (f *fakeLinks) Lookup(_ context.Context, secret string, teamID primitive.ObjectID) (*models.AttendanceLink, error) {
	link, ok := f.byHash[attendancelinks.Hash(secret)]
	if !ok || link.TeamID != teamID || !link.ExpiresAt.After(f.now) {
		return nil, attendancelinks.ErrInvalidLink
	}
	return &link, nil
}

type fakeMetrics struct {
	submissions map[string]int
	denials     map[string]int
}

func (f *fakeMetrics) Submission(mode string) {
	if f.submissions == nil {
		f.submissions = map[string]int{}
	}
	f.submissions[mode]++
}

func (f *fakeMetrics) Denial(op, reason string) {
	if f.denials == nil {
		f.denials = map[string]int{}
	}
	f.denials[op+"/"+reason]++
}
