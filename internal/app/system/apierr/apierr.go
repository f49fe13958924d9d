// Package apierr is the error taxonomy for the JSON API. Every failure the
// API reports carries a Kind (mapped to an HTTP status) and a short
// machine-checkable reason code.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Kind classifies an API failure.
type Kind int

const (
	Internal Kind = iota
	Unauthorized
	Forbidden
	NotFound
	BadRequest
	TooManyRequests
)

// Status maps k to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case BadRequest:
		return http.StatusBadRequest
	case TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case BadRequest:
		return "bad_request"
	case TooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Error is a classified API failure.
type Error struct {
	Kind    Kind
	Reason  string // stable code, e.g. "not_in_team"
	Message string // human-readable text
	Err     error  // underlying cause, never sent to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

// Internalf wraps a backend failure.
func Internalf(err error, format string, args ...any) *Error {
	return &Error{
		Kind:    Internal,
		Reason:  "server_error",
		Message: "Server error",
		Err:     fmt.Errorf(format+": %w", append(args, err)...),
	}
}

// Common errors shared across handlers.
var (
	ErrUnauthorized  = New(Unauthorized, "unauthorized", "Unauthorized")
	ErrNotRegistered = New(Forbidden, "not_registered", "Forbidden")
	ErrTeamNotFound  = New(NotFound, "team_not_found", "Team not found")
	ErrEventNotFound = New(NotFound, "event_not_found", "Event not found")
	ErrRateLimited   = New(TooManyRequests, "rate_limited", "Too many requests. Please wait and try again.")
)

// KindOf returns the Kind of err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// ReasonOf returns the reason code of err, or "" when err is not an *Error.
func ReasonOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// Write renders err as {"error": ..., "reason": ...}. Internal failures are
// logged and reported with a generic message.
func Write(w http.ResponseWriter, log *zap.Logger, err error) {
	var ae *Error
	if !errors.As(err, &ae) {
		ae = &Error{Kind: Internal, Reason: "server_error", Message: "Server error", Err: err}
	}
	if ae.Kind == Internal && log != nil {
		log.Error("request failed", zap.String("reason", ae.Reason), zap.Error(ae))
	}
	JSON(w, ae.Kind.Status(), errorBody{Error: ae.Message, Reason: ae.Reason})
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
