// Package inputval validates and decodes client input for the JSON API.
package inputval

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"unicode"

	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

var (
	ErrInvalidBody = apierr.New(apierr.BadRequest, "invalid_body", "Invalid request body")
	ErrInvalidID   = apierr.New(apierr.BadRequest, "invalid_id", "Invalid id")
	ErrMissingID   = apierr.New(apierr.BadRequest, "missing_id", "Missing required id")
)

// DecodeJSON reads a single JSON object from r into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return ErrInvalidBody
	}
	return nil
}

// ObjectID parses a required hex id.
func ObjectID(s string) (primitive.ObjectID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return primitive.NilObjectID, ErrMissingID
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

// OptionalObjectID parses an optional hex id; empty means nil.
func OptionalObjectID(s string) (*primitive.ObjectID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := ObjectID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ObjectIDs parses a list of hex ids. A nil list yields an empty slice.
func ObjectIDs(ss []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ss))
	for _, s := range ss {
		id, err := ObjectID(s)
		if err != nil {
			return nil, ErrInvalidID
		}
		out = append(out, id)
	}
	return out, nil
}

var errEmail = errors.New("invalid email")

// IsValidEmail reports whether s is a bare addr-spec ("local@domain").
// Display-name forms are rejected.
func IsValidEmail(s string) bool {
	return checkEmail(strings.TrimSpace(s)) == nil
}

func checkEmail(s string) error {
	if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 || strings.ContainsAny(s, "<>") {
		return errEmail
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return errEmail
	}
	for _, part := range []string{s[:at], s[at+1:]} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return errEmail
		}
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return errEmail
	}
	return nil
}
