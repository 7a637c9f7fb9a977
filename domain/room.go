// Package domain contains the core concepts of the traveler-chat system.
// No storage, network, or runtime logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomType string

const (
	RoomTypeFlight      RoomType = "FLIGHT"
	RoomTypeSource      RoomType = "SOURCE"
	RoomTypeDestination RoomType = "DESTINATION"
	RoomTypeGroup       RoomType = "GROUP"
	RoomTypeDirect      RoomType = "DIRECT"
)

// Room is a shared chat channel. FLIGHT/SOURCE/DESTINATION rooms are keyed by
// a flight number or a (location, slot) pair and shared by every journey that
// maps to the same key. GROUP and DIRECT rooms are created explicitly.
type Room struct {
	ID                   uuid.UUID
	Name                 string
	Description          string
	Type                 RoomType
	ExpiryTime           *time.Time
	LastMessageTimestamp *time.Time
	CreatedAt            time.Time
}

// Expired reports whether the room is past its expiry time. Expiry is
// advisory: rooms are never deleted, readers simply skip expired ones.
func (r Room) Expired(now time.Time) bool {
	return r.ExpiryTime != nil && now.After(*r.ExpiryTime)
}
