// internal/app/store/attendancelinks/store.go
package attendancelinks

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/blake2b"
)

// TTL is how long an issued link stays valid.
const TTL = 7 * 24 * time.Hour

const secretBytes = 32

var (
	// ErrInvalidLink covers unknown, expired and wrong-team secrets alike.
	ErrInvalidLink = errors.New("invalid or expired link")

	errSecretGeneration = errors.New("could not generate link secret")
)

// Store manages attendance link secrets. Only a hash of each secret is
// stored; expired links are removed by a TTL index on expires_at.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("attendance_links"), now: time.Now}
}

// Create issues a link for teamID and returns the plaintext secret. The
// secret is not recoverable afterwards.
func (s *Store) Create(ctx context.Context, teamID primitive.ObjectID, createdBy *primitive.ObjectID) (string, models.AttendanceLink, error) {
	raw := securecookie.GenerateRandomKey(secretBytes)
	if raw == nil {
		return "", models.AttendanceLink{}, errSecretGeneration
	}
	secret := hex.EncodeToString(raw)

	now := s.now().UTC()
	link := models.AttendanceLink{
		ID:         primitive.NewObjectID(),
		TeamID:     teamID,
		SecretHash: Hash(secret),
		ExpiresAt:  now.Add(TTL),
		CreatedBy:  createdBy,
		CreatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, link); err != nil {
		return "", models.AttendanceLink{}, err
	}
	return secret, link, nil
}

// Lookup returns the unexpired link for secret and teamID. Links may be
// used any number of times until they expire.
func (s *Store) Lookup(ctx context.Context, secret string, teamID primitive.ObjectID) (*models.AttendanceLink, error) {
	if secret == "" {
		return nil, ErrInvalidLink
	}
	var link models.AttendanceLink
	err := s.c.FindOne(ctx, bson.M{
		"secret_hash": Hash(secret),
		"team_id":     teamID,
		"expires_at":  bson.M{"$gt": s.now().UTC()},
	}).Decode(&link)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrInvalidLink
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// CleanupExpired removes expired links.
// This is a backup for when TTL index cleanup is delayed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": s.now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Hash returns the hex blake2b-256 digest stored in place of a secret.
func Hash(secret string) string {
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
