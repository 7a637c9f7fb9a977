package services

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"flyte/repositories"
)

// testEnv wires the repositories against a throwaway Badger store. Services
// under test are built on top of it per scenario.
type testEnv struct {
	store        *repositories.Store
	users        repositories.IUserRepository
	rooms        repositories.IRoomRepository
	journeys     repositories.IJourneyRepository
	participants repositories.IParticipantRepository
	messages     repositories.IMessageRepository
	media        repositories.IMediaRepository
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := repositories.NewStore(db, slog.Default())
	return testEnv{
		store:        store,
		users:        repositories.NewUserRepository(store),
		rooms:        repositories.NewRoomRepository(store),
		journeys:     repositories.NewJourneyRepository(store),
		participants: repositories.NewParticipantRepository(store),
		messages:     repositories.NewMessageRepository(store),
		media:        repositories.NewMediaRepository(store),
	}
}

func (e testEnv) journeyService(totalSlots int) *JourneyService {
	return NewJourneyService(slog.Default(), e.store, e.users, e.rooms, e.journeys, e.participants, totalSlots)
}

func (e testEnv) messageService() *MessageService {
	return NewMessageService(e.store, e.rooms, e.users, e.messages, e.media)
}

func (e testEnv) roomService() *RoomService {
	return NewRoomService(e.rooms, e.journeys, e.messageService(), e.participants)
}
