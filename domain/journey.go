package domain

import (
	"time"

	"github.com/google/uuid"
)

// Journey is one user's single flight leg. It links the traveler to three
// rooms: one for the flight itself and one lounge for each end of the trip.
// A journey is created once and never mutated; the rooms it references are
// shared and may outlive it.
type Journey struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Source          string
	Destination     string
	DepartTime      time.Time
	ArrivalTime     time.Time
	FlightNumber    string
	SourceSlot      string
	DestinationSlot string

	FlightRoomID      uuid.UUID
	SourceRoomID      uuid.UUID
	DestinationRoomID uuid.UUID

	CreatedAt time.Time
}

// RoomIDs returns the three room references of the journey.
func (j Journey) RoomIDs() []uuid.UUID {
	return []uuid.UUID{j.FlightRoomID, j.SourceRoomID, j.DestinationRoomID}
}
