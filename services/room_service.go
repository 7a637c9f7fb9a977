//go:generate go run go.uber.org/mock/mockgen -source=room_service.go -destination=../mocks/mock_room_service.go -package=mocks
package services

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"flyte/domain"
	"flyte/repositories"
)

type CreateRoomRequest struct {
	Name        string          `validate:"required"`
	Description string          `validate:"required"`
	Type        domain.RoomType `validate:"required,oneof=GROUP DIRECT"`
	MemberIDs   []uuid.UUID     `validate:"min=1"`
}

type RoomWithMessages struct {
	Room     domain.Room
	Messages []domain.Message
}

type IRoomService interface {
	CreateRoom(ctx context.Context, request CreateRoomRequest) (domain.Room, error)
	GetRoomByID(id uuid.UUID) (domain.Room, error)
	GetRoomsAndMessagesByUser(userID uuid.UUID) ([]RoomWithMessages, error)
}

// RoomService covers the rooms that are not derived from journeys
// (GROUP/DIRECT) and the hydration read that loads a user's chat list.
type RoomService struct {
	rooms        repositories.IRoomRepository
	journeys     repositories.IJourneyRepository
	messages     IMessageService
	participants repositories.IParticipantRepository
	validate     *validator.Validate
}

func NewRoomService(
	rooms repositories.IRoomRepository,
	journeys repositories.IJourneyRepository,
	messages IMessageService,
	participants repositories.IParticipantRepository,
) *RoomService {
	return &RoomService{
		rooms:        rooms,
		journeys:     journeys,
		messages:     messages,
		participants: participants,
		validate:     validator.New(),
	}
}

// CreateRoom creates an explicit GROUP or DIRECT room and enrolls its
// members. Journey rooms are never created here.
func (s *RoomService) CreateRoom(ctx context.Context, request CreateRoomRequest) (domain.Room, error) {
	if err := s.validate.StructCtx(ctx, request); err != nil {
		return domain.Room{}, err
	}

	room := domain.Room{
		ID:          uuid.New(),
		Name:        request.Name,
		Description: request.Description,
		Type:        request.Type,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.rooms.CreateRoom(room); err != nil {
		return domain.Room{}, err
	}
	for _, memberID := range request.MemberIDs {
		if err := s.participants.AddParticipant(room.ID, memberID); err != nil {
			return domain.Room{}, err
		}
	}
	return room, nil
}

func (s *RoomService) GetRoomByID(id uuid.UUID) (domain.Room, error) {
	return s.rooms.GetRoomByID(id)
}

// GetRoomsAndMessagesByUser collects the distinct rooms across all of a
// user's journeys, drops expired ones, and hydrates each with its messages
// in a single batch read.
func (s *RoomService) GetRoomsAndMessagesByUser(userID uuid.UUID) ([]RoomWithMessages, error) {
	journeys, err := s.journeys.GetJourneysByUser(userID)
	if err != nil {
		return nil, err
	}

	roomIDs := lo.Uniq(lo.FlatMap(journeys, func(journey domain.Journey, _ int) []uuid.UUID {
		return journey.RoomIDs()
	}))

	rooms, err := s.rooms.GetRoomsByIDs(roomIDs)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	active := lo.Filter(rooms, func(room domain.Room, _ int) bool {
		return !room.Expired(now)
	})

	messagesByRoom, err := s.messages.GetMessagesByRooms(lo.Map(active, func(room domain.Room, _ int) uuid.UUID {
		return room.ID
	}))
	if err != nil {
		return nil, err
	}

	return lo.Map(active, func(room domain.Room, _ int) RoomWithMessages {
		return RoomWithMessages{Room: room, Messages: messagesByRoom[room.ID]}
	}), nil
}
