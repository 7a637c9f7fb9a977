package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoomParticipant links a user to a room. The (room, user) pair is unique:
// a user cannot join the same room twice.
type RoomParticipant struct {
	RoomID    uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}
