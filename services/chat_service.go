//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"flyte/contract"
	"flyte/domain"
	"flyte/errors"
	"flyte/moderation"
	"flyte/repositories"
)

// ClientMessage is the inbound chat-send shape. The sender identity comes
// from the transport layer, never from the payload.
type ClientMessage struct {
	MessageText string           `validate:"required"`
	MessageHTML string           `validate:"required"`
	MediaType   domain.MediaType `validate:"required"`
	MediaLink   string
}

type IChatService interface {
	Send(ctx context.Context, roomID, senderID uuid.UUID, message ClientMessage) (domain.Message, error)
}

// ChatService validates sender membership, persists the message, publishes
// it on the room's live topic and hands fan-out to the notifier worker.
type ChatService struct {
	log           *slog.Logger
	participants  repositories.IParticipantRepository
	messages      IMessageService
	publisher     contract.Publisher
	notifications chan<- domain.Notification
	moderator     *moderation.Moderator
	validate      *validator.Validate
}

func NewChatService(
	log *slog.Logger,
	participants repositories.IParticipantRepository,
	messages IMessageService,
	publisher contract.Publisher,
	notifications chan<- domain.Notification,
	moderator *moderation.Moderator,
) *ChatService {
	return &ChatService{
		log:           log,
		participants:  participants,
		messages:      messages,
		publisher:     publisher,
		notifications: notifications,
		moderator:     moderator,
		validate:      validator.New(),
	}
}

// Send processes one chat message. Once the message is committed nothing
// downstream can undo it: a failed broadcast or a full notification queue is
// logged and the committed message stands.
func (s *ChatService) Send(ctx context.Context, roomID, senderID uuid.UUID, message ClientMessage) (domain.Message, error) {
	if err := s.validate.StructCtx(ctx, message); err != nil {
		return domain.Message{}, err
	}

	member, err := s.participants.IsParticipant(roomID, senderID)
	if err != nil {
		return domain.Message{}, err
	}
	if !member {
		return domain.Message{}, errors.AccessDeniedError{
			UserID: senderID.String(),
			RoomID: roomID.String(),
		}
	}

	text := message.MessageText
	if s.moderator != nil {
		text = s.moderator.Censor(text)
	}

	saved, err := s.messages.CreateMessage(ctx, CreateMessageRequest{
		RoomID:      roomID,
		UserID:      senderID,
		MessageText: text,
		MessageHTML: message.MessageHTML,
		MediaType:   message.MediaType,
		MediaLink:   message.MediaLink,
	})
	if err != nil {
		return domain.Message{}, err
	}

	if err := s.publisher.Publish("room/"+roomID.String(), saved); err != nil {
		s.log.Warn("room broadcast failed", "room", roomID, "err", err)
	}

	select {
	case s.notifications <- domain.Notification{RoomID: roomID, Message: saved}:
	default:
		s.log.Warn("notification queue full, dropping fan-out", "room", roomID, "message", saved.ID)
	}

	return saved, nil
}
