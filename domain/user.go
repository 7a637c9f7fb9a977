package domain

import (
	"time"

	"github.com/google/uuid"
)

// User supplies identity for journeys and messages. Credential and token
// mechanics live outside this module.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	CreatedAt time.Time
}
