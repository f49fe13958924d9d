// internal/app/store/members/store.go
package memberstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/committeehub/internal/app/system/inputval"
	"github.com/dalemusser/committeehub/internal/app/system/normalize"
	"github.com/dalemusser/committeehub/internal/app/system/txn"
	"github.com/dalemusser/committeehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when a member with the email already exists.
	ErrDuplicateEmail = errors.New("a member with this email already exists")

	// ErrNotFound is returned by GetByID when no member matches.
	ErrNotFound = errors.New("member not found")

	// ErrInvalidEmail is returned when the email is missing or malformed.
	ErrInvalidEmail = errors.New("a valid email is required")

	// ErrInvalidRole is returned for a role outside models.Roles.
	ErrInvalidRole = errors.New(`role must be "member"|"admin"|"super_admin"`)
)

type Store struct {
	db    *mongo.Database
	c     *mongo.Collection
	teams *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection("members"), teams: db.Collection("teams")}
}

// GetByID loads a member, returning ErrNotFound when missing.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	m, err := s.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotFound
	}
	return m, nil
}

// Lookup loads a member by id. It returns (nil, nil) when missing.
func (s *Store) Lookup(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// FindByEmail looks a member up by lowercased email. It returns (nil, nil)
// when nobody is registered under that address.
func (s *Store) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, filter).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// IsEmpty reports whether no member exists at all.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Create normalizes and inserts a member. The display name defaults to
// title, first and last name joined.
func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	m.ID = primitive.NewObjectID()
	m.Email = normalize.Email(m.Email)
	if !inputval.IsValidEmail(m.Email) {
		return models.Member{}, ErrInvalidEmail
	}
	if !m.Role.Valid() {
		return models.Member{}, ErrInvalidRole
	}
	m.Title = normalize.Name(m.Title)
	m.FirstName = normalize.Name(m.FirstName)
	m.LastName = normalize.Name(m.LastName)
	m.Name = normalize.Name(m.Name)
	if m.Name == "" {
		m.Name = models.ComposeName(m.Title, m.FirstName, m.LastName)
	}
	m.NameCI = text.Fold(m.DisplayName())
	if m.TeamIDs == nil {
		m.TeamIDs = []primitive.ObjectID{}
	}

	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateEmail
		}
		return models.Member{}, err
	}
	return m, nil
}

// Update describes a partial member change. Nil fields are left untouched.
// Team membership is owned by teams and cannot be changed here.
type Update struct {
	Title     *string
	FirstName *string
	LastName  *string
	ITSNumber *string
	Phone     *string
	Name      *string
	Role      *models.Role
}

// Update applies upd. When any name part changes the display name is
// recomposed from title, first and last name.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) (*models.Member, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *cur

	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, ErrInvalidRole
		}
		next.Role = *upd.Role
	}
	if upd.ITSNumber != nil {
		next.ITSNumber = strings.TrimSpace(*upd.ITSNumber)
	}
	if upd.Phone != nil {
		next.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Name != nil {
		next.Name = normalize.Name(*upd.Name)
	}
	if upd.Title != nil || upd.FirstName != nil || upd.LastName != nil {
		if upd.Title != nil {
			next.Title = normalize.Name(*upd.Title)
		}
		if upd.FirstName != nil {
			next.FirstName = normalize.Name(*upd.FirstName)
		}
		if upd.LastName != nil {
			next.LastName = normalize.Name(*upd.LastName)
		}
		next.Name = models.ComposeName(next.Title, next.FirstName, next.LastName)
		if next.Name == "" {
			next.Name = next.Email
		}
	}
	next.NameCI = text.Fold(next.DisplayName())
	next.UpdatedAt = time.Now().UTC()

	_, err = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title":      next.Title,
		"first_name": next.FirstName,
		"last_name":  next.LastName,
		"its_number": next.ITSNumber,
		"phone":      next.Phone,
		"name":       next.Name,
		"name_ci":    next.NameCI,
		"role":       next.Role,
		"updated_at": next.UpdatedAt,
	}})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

// Delete removes a member, pulls them from every team roster and clears
// any team leadership they held, all in one batch.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	return txn.Run(ctx, s.db, nil, func(ctx context.Context) error {
		res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		if _, err := s.teams.UpdateMany(ctx,
			bson.M{"member_ids": id},
			bson.M{"$pull": bson.M{"member_ids": id}},
		); err != nil {
			return err
		}
		_, err = s.teams.UpdateMany(ctx,
			bson.M{"leader_id": id},
			bson.M{"$unset": bson.M{"leader_id": ""}},
		)
		return err
	})
}

// ListByIDs returns the members with the given ids, in no particular order.
// Unknown ids are skipped.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// List returns every member sorted by name.
func (s *Store) List(ctx context.Context) ([]models.Member, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Member, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
