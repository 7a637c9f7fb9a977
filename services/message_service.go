//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"context"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"flyte/domain"
	"flyte/repositories"
)

type CreateMessageRequest struct {
	RoomID      uuid.UUID        `validate:"required"`
	UserID      uuid.UUID        `validate:"required"`
	MessageText string           `validate:"required"`
	MessageHTML string           `validate:"required"`
	MediaType   domain.MediaType `validate:"required"`
	MediaLink   string
}

type IMessageService interface {
	CreateMessage(ctx context.Context, request CreateMessageRequest) (domain.Message, error)
	GetMessagesByRoom(roomID uuid.UUID) ([]domain.Message, error)
	GetMessagesByUser(userID uuid.UUID) ([]domain.Message, error)
	GetMessageCount(roomID uuid.UUID) (int64, error)
	GetMessagesByRooms(roomIDs []uuid.UUID) (map[uuid.UUID][]domain.Message, error)
	UploadMedia(data []byte) (domain.MediaType, string, error)
}

// MessageService persists chat messages and serves room/user history reads.
type MessageService struct {
	store    *repositories.Store
	rooms    repositories.IRoomRepository
	users    repositories.IUserRepository
	messages repositories.IMessageRepository
	media    repositories.IMediaRepository
	validate *validator.Validate
}

func NewMessageService(
	store *repositories.Store,
	rooms repositories.IRoomRepository,
	users repositories.IUserRepository,
	messages repositories.IMessageRepository,
	media repositories.IMediaRepository,
) *MessageService {
	return &MessageService{
		store:    store,
		rooms:    rooms,
		users:    users,
		messages: messages,
		media:    media,
		validate: validator.New(),
	}
}

// CreateMessage persists the message and bumps the room's last-activity
// marker in the same transaction: either both land or neither does.
func (s *MessageService) CreateMessage(ctx context.Context, request CreateMessageRequest) (domain.Message, error) {
	if err := s.validate.StructCtx(ctx, request); err != nil {
		return domain.Message{}, err
	}

	var message domain.Message
	err := s.store.Update(func(txn *badger.Txn) error {
		room, err := s.rooms.GetRoomByIDInTxn(txn, request.RoomID)
		if err != nil {
			return err
		}
		user, err := s.users.GetUserByIDInTxn(txn, request.UserID)
		if err != nil {
			return err
		}

		message = domain.Message{
			ID:          uuid.New(),
			RoomID:      room.ID,
			UserID:      user.ID,
			MessageText: request.MessageText,
			MessageHTML: request.MessageHTML,
			MediaType:   request.MediaType,
			MediaLink:   request.MediaLink,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.messages.CreateInTxn(txn, message); err != nil {
			return err
		}
		return s.rooms.SetLastMessageInTxn(txn, room.ID, message.CreatedAt)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

func (s *MessageService) GetMessagesByRoom(roomID uuid.UUID) ([]domain.Message, error) {
	return s.messages.GetMessagesByRoom(roomID)
}

func (s *MessageService) GetMessagesByUser(userID uuid.UUID) ([]domain.Message, error) {
	return s.messages.GetMessagesByUser(userID)
}

func (s *MessageService) GetMessageCount(roomID uuid.UUID) (int64, error) {
	return s.messages.CountByRoom(roomID)
}

func (s *MessageService) GetMessagesByRooms(roomIDs []uuid.UUID) (map[uuid.UUID][]domain.Message, error) {
	return s.messages.GetMessagesByRooms(roomIDs)
}

// UploadMedia stores a media blob and classifies it by content sniffing.
// The returned link goes into CreateMessageRequest.MediaLink.
func (s *MessageService) UploadMedia(data []byte) (domain.MediaType, string, error) {
	id, err := s.media.StoreMedia(data)
	if err != nil {
		return "", "", err
	}
	return mediaKindOf(mimetype.Detect(data)), "media/" + id.String(), nil
}

func mediaKindOf(mime *mimetype.MIME) domain.MediaType {
	switch {
	case strings.HasPrefix(mime.String(), "image/"):
		return domain.MediaTypeImage
	case strings.HasPrefix(mime.String(), "video/"):
		return domain.MediaTypeVideo
	case mime.Is("text/plain"):
		return domain.MediaTypeText
	default:
		return domain.MediaTypeFile
	}
}
