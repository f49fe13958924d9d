// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/committeehub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Directory
	ensure("members", membersSchema())
	ensure("teams", teamsSchema())
	ensure("events", eventsSchema())

	// Attendance
	ensure("attendance", attendanceSchema())
	ensure("attendance_links", attendanceLinksSchema())

	// Sign-in state is short-lived and shaped by one store; no validator.
	ensure("oauth_states", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank  = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	objectIDs = bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}}
	civilDate = bson.M{"bsonType": "string", "pattern": "^[0-9]{4}-[0-9]{2}-[0-9]{2}$"}
	// Empty is allowed: stores clear a time by writing "".
	clockTime = bson.M{"bsonType": "string", "pattern": "^$|^([01]?[0-9]|2[0-3]):[0-5][0-9]$"}
)

func membersSchema() bson.M {
	roleEnum := bson.A{}
	for _, r := range models.Roles {
		roleEnum = append(roleEnum, string(r))
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "role", "team_ids"},
			"properties": bson.M{
				"email":    nonBlank,
				"name":     bson.M{"bsonType": "string"},
				"name_ci":  bson.M{"bsonType": "string"},
				"role":     bson.M{"enum": roleEnum},
				"team_ids": objectIDs,
			},
		},
	}
}

func teamsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "member_ids"},
			"properties": bson.M{
				"name":        nonBlank,
				"name_ci":     nonBlank,
				"leader_id":   bson.M{"bsonType": "objectId"},
				"member_ids":  objectIDs,
				"day_of_week": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0, "maximum": 6},
				"is_wrap_up":  bson.M{"bsonType": "bool"},
			},
		},
	}
}

func eventsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "date_from", "date_to", "team_ids"},
			"properties": bson.M{
				"name":               nonBlank,
				"date_from":          bson.M{"bsonType": "date"},
				"date_to":            bson.M{"bsonType": "date"},
				"team_ids":           objectIDs,
				"team_overrides":     bson.M{"bsonType": bson.A{"object", "null"}},
				"overall_start_time": clockTime,
				"overall_end_time":   clockTime,
			},
		},
	}
}

func attendanceSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"team_id", "date", "event_key", "present_ids", "absent_ids"},
			"properties": bson.M{
				"team_id":     bson.M{"bsonType": "objectId"},
				"event_id":    bson.M{"bsonType": "objectId"},
				"event_key":   bson.M{"bsonType": "string"},
				"date":        civilDate,
				"present_ids": objectIDs,
				"absent_ids":  objectIDs,
				"start_time":  clockTime,
				"end_time":    clockTime,
				"notes":       bson.M{"bsonType": "string"},
			},
		},
	}
}

func attendanceLinksSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"team_id", "secret_hash", "expires_at"},
			"properties": bson.M{
				"team_id":     bson.M{"bsonType": "objectId"},
				"secret_hash": bson.M{"bsonType": "string", "pattern": "^[0-9a-f]{64}$"},
				"expires_at":  bson.M{"bsonType": "date"},
			},
		},
	}
}
