package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"flyte/domain"
	"flyte/errors"
)

func newJourneyRequest(userID uuid.UUID) CreateJourneyRequest {
	return CreateJourneyRequest{
		UserID:        userID,
		Source:        "CDG",
		Destination:   "JFK",
		DepartureTime: time.Date(2026, 1, 6, 17, 0, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2026, 1, 6, 23, 30, 0, 0, time.UTC),
		FlightNumber:  "AF006",
	}
}

func Test_Create_Journey_Allocates_Three_Rooms(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	service := env.journeyService(6)

	alice, err := env.users.CreateUser("alice@example.com", "Alice")
	req.NoError(err)

	journey, err := service.CreateJourney(context.Background(), newJourneyRequest(alice.ID))
	req.NoError(err)
	req.Equal("S16T20D06012026", journey.SourceSlot)
	req.Equal("S20T24D06012026", journey.DestinationSlot)

	flightRoom, err := env.rooms.GetRoomByID(journey.FlightRoomID)
	req.NoError(err)
	req.Equal(domain.RoomTypeFlight, flightRoom.Type)
	req.Equal("CDG-JFK-AF006", flightRoom.Name)

	sourceRoom, err := env.rooms.GetRoomByID(journey.SourceRoomID)
	req.NoError(err)
	req.Equal(domain.RoomTypeSource, sourceRoom.Type)
	req.Equal("Lounge-CDG-4PM-8PM-06Jan", sourceRoom.Name)

	destRoom, err := env.rooms.GetRoomByID(journey.DestinationRoomID)
	req.NoError(err)
	req.Equal(domain.RoomTypeDestination, destRoom.Type)
	req.Equal("Lounge-JFK-8PM-12AM-06Jan", destRoom.Name)

	// Every room, the source lounge included, expires 24h after the end of
	// the arrival slot.
	wantExpiry := time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC)
	for _, room := range []domain.Room{flightRoom, sourceRoom, destRoom} {
		req.NotNil(room.ExpiryTime)
		req.Equal(wantExpiry, *room.ExpiryTime)
		req.Contains(room.Description, "Room expires at")
	}

	// The traveler is enrolled in all three rooms.
	for _, roomID := range journey.RoomIDs() {
		member, err := env.participants.IsParticipant(roomID, alice.ID)
		req.NoError(err)
		req.True(member)
	}

	persisted, err := service.GetJourneyByID(journey.ID)
	req.NoError(err)
	req.Equal(journey.ID, persisted.ID)
}

func Test_Travelers_On_Same_Flight_Share_Rooms(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	service := env.journeyService(6)

	alice, err := env.users.CreateUser("alice@example.com", "Alice")
	req.NoError(err)
	bob, err := env.users.CreateUser("bob@example.com", "Bob")
	req.NoError(err)

	first, err := service.CreateJourney(context.Background(), newJourneyRequest(alice.ID))
	req.NoError(err)

	// Bob departs later but within the same 4h slot.
	request := newJourneyRequest(bob.ID)
	request.DepartureTime = request.DepartureTime.Add(90 * time.Minute)
	second, err := service.CreateJourney(context.Background(), request)
	req.NoError(err)

	req.Equal(first.FlightRoomID, second.FlightRoomID)
	req.Equal(first.SourceRoomID, second.SourceRoomID)
	req.Equal(first.DestinationRoomID, second.DestinationRoomID)

	for _, userID := range []uuid.UUID{alice.ID, bob.ID} {
		member, err := env.participants.IsParticipant(first.FlightRoomID, userID)
		req.NoError(err)
		req.True(member)
	}
}

func Test_Lounge_Rooms_Split_By_Slot(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	service := env.journeyService(6)

	alice, err := env.users.CreateUser("alice@example.com", "Alice")
	req.NoError(err)
	bob, err := env.users.CreateUser("bob@example.com", "Bob")
	req.NoError(err)

	first, err := service.CreateJourney(context.Background(), newJourneyRequest(alice.ID))
	req.NoError(err)

	// Same flight the next day: the flight room is shared, the lounges are
	// bound to different slots.
	request := newJourneyRequest(bob.ID)
	request.DepartureTime = request.DepartureTime.Add(24 * time.Hour)
	request.ArrivalTime = request.ArrivalTime.Add(24 * time.Hour)
	second, err := service.CreateJourney(context.Background(), request)
	req.NoError(err)

	req.Equal(first.FlightRoomID, second.FlightRoomID)
	req.NotEqual(first.SourceRoomID, second.SourceRoomID)
	req.NotEqual(first.DestinationRoomID, second.DestinationRoomID)
}

func Test_Duplicate_Journey_Is_Rejected_Atomically(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	service := env.journeyService(6)

	alice, err := env.users.CreateUser("alice@example.com", "Alice")
	req.NoError(err)

	_, err = service.CreateJourney(context.Background(), newJourneyRequest(alice.ID))
	req.NoError(err)

	_, err = service.CreateJourney(context.Background(), newJourneyRequest(alice.ID))
	var conflict errors.ConflictError
	req.ErrorAs(err, &conflict)

	journeys, err := service.GetJourneysByUser(alice.ID)
	req.NoError(err)
	req.Len(journeys, 1)
}

func Test_Create_Journey_Unknown_User(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	service := env.journeyService(6)

	_, err := service.CreateJourney(context.Background(), newJourneyRequest(uuid.New()))
	var notFound errors.NotFoundError
	req.ErrorAs(err, &notFound)
	req.Equal("user", notFound.Entity)
}

func Test_Create_Journey_Invalid_Slot_Count(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	service := env.journeyService(5)

	alice, err := env.users.CreateUser("alice@example.com", "Alice")
	req.NoError(err)

	_, err = service.CreateJourney(context.Background(), newJourneyRequest(alice.ID))
	var confErr errors.ConfigurationError
	req.ErrorAs(err, &confErr)
}

func Test_Create_Journey_Validates_Request(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	service := env.journeyService(6)

	alice, err := env.users.CreateUser("alice@example.com", "Alice")
	req.NoError(err)

	request := newJourneyRequest(alice.ID)
	request.FlightNumber = ""
	_, err = service.CreateJourney(context.Background(), request)
	req.Error(err)
}

func Test_Concurrent_Journeys_Share_One_Flight_Room(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	service := env.journeyService(6)

	const travelers = 4
	userIDs := make([]uuid.UUID, travelers)
	for i := range userIDs {
		user, err := env.users.CreateUser(uuid.NewString()+"@example.com", "Traveler")
		req.NoError(err)
		userIDs[i] = user.ID
	}

	var wg sync.WaitGroup
	journeys := make([]domain.Journey, travelers)
	errs := make([]error, travelers)
	for i, userID := range userIDs {
		wg.Add(1)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			journeys[i], errs[i] = service.CreateJourney(context.Background(), newJourneyRequest(userID))
		}(i, userID)
	}
	wg.Wait()

	// Losers of the commit race retry and must observe the winner's room.
	flightRooms := map[uuid.UUID]struct{}{}
	for i := range journeys {
		req.NoError(errs[i])
		flightRooms[journeys[i].FlightRoomID] = struct{}{}
	}
	req.Len(flightRooms, 1)
}
