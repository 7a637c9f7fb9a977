//go:generate go run go.uber.org/mock/mockgen -source=journey_service.go -destination=../mocks/mock_journey_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"flyte/domain"
	"flyte/repositories"
	"flyte/slot"
)

// expiryBuffer keeps a room open past the traveler's arrival slot so late
// conversations can conclude.
const expiryBuffer = 24 * time.Hour

type CreateJourneyRequest struct {
	UserID        uuid.UUID `validate:"required"`
	Source        string    `validate:"required"`
	Destination   string    `validate:"required"`
	DepartureTime time.Time `validate:"required"`
	ArrivalTime   time.Time `validate:"required"`
	FlightNumber  string    `validate:"required"`
}

type IJourneyService interface {
	CreateJourney(ctx context.Context, request CreateJourneyRequest) (domain.Journey, error)
	GetJourneyByID(id uuid.UUID) (domain.Journey, error)
	GetJourneysByUser(userID uuid.UUID) ([]domain.Journey, error)
}

// JourneyService turns a journey's timestamps into time slots and binds the
// journey to its three rooms, creating each room only when no room exists
// for its key.
type JourneyService struct {
	log          *slog.Logger
	store        *repositories.Store
	users        repositories.IUserRepository
	rooms        repositories.IRoomRepository
	journeys     repositories.IJourneyRepository
	participants repositories.IParticipantRepository
	totalSlots   int
	validate     *validator.Validate
}

func NewJourneyService(
	log *slog.Logger,
	store *repositories.Store,
	users repositories.IUserRepository,
	rooms repositories.IRoomRepository,
	journeys repositories.IJourneyRepository,
	participants repositories.IParticipantRepository,
	totalSlots int,
) *JourneyService {
	return &JourneyService{
		log:          log,
		store:        store,
		users:        users,
		rooms:        rooms,
		journeys:     journeys,
		participants: participants,
		totalSlots:   totalSlots,
		validate:     validator.New(),
	}
}

// CreateJourney allocates rooms for a journey and persists it. The whole
// sequence (user lookup, three find-or-creates, duplicate probe, journey
// write, participant registration) runs in one transaction: a duplicate
// journey aborts everything, so rooms created on the way are discarded, and
// concurrent requests for the same room key serialize through the store's
// conflict retry.
func (s *JourneyService) CreateJourney(ctx context.Context, request CreateJourneyRequest) (domain.Journey, error) {
	if err := s.validate.StructCtx(ctx, request); err != nil {
		return domain.Journey{}, err
	}

	sourceSlot, err := slot.Compute(request.DepartureTime, s.totalSlots)
	if err != nil {
		return domain.Journey{}, err
	}
	destSlot, err := slot.Compute(request.ArrivalTime, s.totalSlots)
	if err != nil {
		return domain.Journey{}, err
	}

	var journey domain.Journey
	err = s.store.Update(func(txn *badger.Txn) error {
		user, err := s.users.GetUserByIDInTxn(txn, request.UserID)
		if err != nil {
			return err
		}

		journey = domain.Journey{
			ID:              uuid.New(),
			UserID:          user.ID,
			Source:          request.Source,
			Destination:     request.Destination,
			DepartTime:      request.DepartureTime.UTC(),
			ArrivalTime:     request.ArrivalTime.UTC(),
			FlightNumber:    request.FlightNumber,
			SourceSlot:      sourceSlot.Key,
			DestinationSlot: destSlot.Key,
			CreatedAt:       time.Now().UTC(),
		}

		flightRoom, err := s.assignFlightRoom(txn, request, destSlot)
		if err != nil {
			return err
		}
		sourceRoom, err := s.assignLoungeRoom(txn, domain.RoomTypeSource, request.Source, sourceSlot, destSlot)
		if err != nil {
			return err
		}
		destRoom, err := s.assignLoungeRoom(txn, domain.RoomTypeDestination, request.Destination, destSlot, destSlot)
		if err != nil {
			return err
		}
		journey.FlightRoomID = flightRoom.ID
		journey.SourceRoomID = sourceRoom.ID
		journey.DestinationRoomID = destRoom.ID

		if err := s.journeys.CreateInTxn(txn, journey); err != nil {
			return err
		}

		// Explicit membership: the traveler joins all three rooms so the
		// chat-send participant check holds for journey rooms too.
		for _, roomID := range journey.RoomIDs() {
			if err := s.participants.EnsureParticipantInTxn(txn, roomID, user.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Journey{}, err
	}

	s.log.Info("journey created",
		"journey", journey.ID,
		"flight", journey.FlightNumber,
		"source_slot", journey.SourceSlot,
		"destination_slot", journey.DestinationSlot,
	)
	return journey, nil
}

func (s *JourneyService) GetJourneyByID(id uuid.UUID) (domain.Journey, error) {
	return s.journeys.GetJourneyByID(id)
}

func (s *JourneyService) GetJourneysByUser(userID uuid.UUID) ([]domain.Journey, error) {
	return s.journeys.GetJourneysByUser(userID)
}

// assignFlightRoom reuses the room bound to the flight number or creates it.
func (s *JourneyService) assignFlightRoom(txn *badger.Txn, request CreateJourneyRequest, destSlot slot.Slot) (domain.Room, error) {
	existing, found, err := s.rooms.FindByNaturalKeyInTxn(txn, domain.RoomTypeFlight, request.FlightNumber)
	if err != nil {
		return domain.Room{}, err
	}
	if found {
		return existing, nil
	}

	name := fmt.Sprintf("%s-%s-%s", request.Source, request.Destination, request.FlightNumber)
	description := fmt.Sprintf("Flight %s from %s to %s.", request.FlightNumber, request.Source, request.Destination)
	return s.createRoom(txn, domain.RoomTypeFlight, request.FlightNumber, name, description, destSlot)
}

// assignLoungeRoom reuses the room bound to (location, slot) or creates it.
// Lounge names are generic (location + slot), never flight specific.
func (s *JourneyService) assignLoungeRoom(txn *badger.Txn, roomType domain.RoomType, location string, locationSlot, destSlot slot.Slot) (domain.Room, error) {
	key := location + "|" + locationSlot.Key
	existing, found, err := s.rooms.FindByNaturalKeyInTxn(txn, roomType, key)
	if err != nil {
		return domain.Room{}, err
	}
	if found {
		return existing, nil
	}

	name := fmt.Sprintf("Lounge-%s-%s", location, locationSlot.Label)
	var description string
	if roomType == domain.RoomTypeSource {
		description = fmt.Sprintf("Travelers departing from %s during slot %s.", location, locationSlot.Label)
	} else {
		description = fmt.Sprintf("Travelers arriving at %s during slot %s.", location, locationSlot.Label)
	}
	return s.createRoom(txn, roomType, key, name, description, destSlot)
}

// createRoom persists a new keyed room. Expiry is always derived from the
// destination slot end plus the buffer, also for SOURCE rooms: a room must
// stay open until the traveler's trip concludes.
func (s *JourneyService) createRoom(txn *badger.Txn, roomType domain.RoomType, key, name, description string, destSlot slot.Slot) (domain.Room, error) {
	expiry := destSlot.End.Add(expiryBuffer)
	room := domain.Room{
		ID:          uuid.New(),
		Name:        name,
		Description: fmt.Sprintf("%s Room expires at %s", description, expiry.Format(time.RFC3339)),
		Type:        roomType,
		ExpiryTime:  &expiry,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.rooms.CreateKeyedInTxn(txn, room, key); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}
