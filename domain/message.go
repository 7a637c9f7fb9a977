package domain

import (
	"time"

	"github.com/google/uuid"
)

type MediaType string

const (
	MediaTypeText  MediaType = "TEXT"
	MediaTypeImage MediaType = "IMAGE"
	MediaTypeVideo MediaType = "VIDEO"
	MediaTypeFile  MediaType = "FILE"
)

// Message represents an immutable chat event tied to a room and a sender.
// CreatedAt is the ordering key within a room.
type Message struct {
	ID          uuid.UUID
	RoomID      uuid.UUID
	UserID      uuid.UUID
	MessageText string
	MessageHTML string
	MediaType   MediaType
	MediaLink   string
	CreatedAt   time.Time
}
