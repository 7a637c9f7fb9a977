package domain

import "github.com/google/uuid"

type PayloadType string

const PayloadChatMessage PayloadType = "CHAT_MESSAGE"

// Payload is the typed envelope pushed on a user's personal channel.
type Payload struct {
	Type PayloadType `json:"type"`
	Data any         `json:"data"`
}

// Notification is a fan-out job: deliver the message to every participant of
// the room except the sender.
type Notification struct {
	RoomID  uuid.UUID
	Message Message
}
