// Package errors defines the error taxonomy surfaced by the flyte core.
// Every service error is one of the types below; transport layers map them
// to status codes.
package errors

import "fmt"

// ErrWorkerPanic marks a supervised worker that crashed and was recovered.
var ErrWorkerPanic = fmt.Errorf("worker panic")

// NotFoundError reports a missing referenced entity (user, room, journey,
// message).
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ConflictError reports a duplicate journey or a race that would produce two
// records for one logical key.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	return e.Reason
}

// AccessDeniedError reports a sender that is not a participant of the room
// it is writing to.
type AccessDeniedError struct {
	UserID string
	RoomID string
}

func (e AccessDeniedError) Error() string {
	return fmt.Sprintf("user %s is not a participant of room %s", e.UserID, e.RoomID)
}

// ConfigurationError reports an invalid startup configuration, such as a
// slot count that does not evenly tile a day.
type ConfigurationError struct {
	Reason string
}

func (e ConfigurationError) Error() string {
	return e.Reason
}
