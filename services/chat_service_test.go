package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"flyte/domain"
	"flyte/errors"
	"flyte/moderation"
	"flyte/runtime/workers"
)

// capturingPublisher records every publish for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *capturingPublisher) Publish(topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *capturingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.topics...)
}

type chatFixture struct {
	env       testEnv
	chat      *ChatService
	publisher *capturingPublisher
	room      domain.Room
	alice     domain.User
	bob       domain.User
	clara     domain.User
}

// newChatFixture builds a group room with three members and a chat service
// whose notification queue is drained by a live notifier worker.
func newChatFixture(t *testing.T, moderator *moderation.Moderator) chatFixture {
	t.Helper()
	req := require.New(t)
	env := newTestEnv(t)

	alice, err := env.users.CreateUser("alice@example.com", "Alice")
	req.NoError(err)
	bob, err := env.users.CreateUser("bob@example.com", "Bob")
	req.NoError(err)
	clara, err := env.users.CreateUser("clara@example.com", "Clara")
	req.NoError(err)

	room := domain.Room{ID: uuid.New(), Name: "gate-b12", Type: domain.RoomTypeGroup, CreatedAt: time.Now().UTC()}
	req.NoError(env.rooms.CreateRoom(room))
	for _, member := range []domain.User{alice, bob, clara} {
		req.NoError(env.participants.AddParticipant(room.ID, member.ID))
	}

	publisher := &capturingPublisher{}
	notifications := make(chan domain.Notification, 8)
	chat := NewChatService(slog.Default(), env.participants, env.messageService(), publisher, notifications, moderator)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	notifier := workers.NewNotifier(slog.Default(), env.participants, publisher, notifications)
	go func() { _ = notifier.Run(ctx) }()

	return chatFixture{
		env:       env,
		chat:      chat,
		publisher: publisher,
		room:      room,
		alice:     alice,
		bob:       bob,
		clara:     clara,
	}
}

func Test_Send_Broadcasts_And_Notifies_Other_Participants(t *testing.T) {
	req := require.New(t)
	fixture := newChatFixture(t, nil)

	saved, err := fixture.chat.Send(context.Background(), fixture.room.ID, fixture.alice.ID, ClientMessage{
		MessageText: "anyone at gate B12 already?",
		MessageHTML: "<p>anyone at gate B12 already?</p>",
		MediaType:   domain.MediaTypeText,
	})
	req.NoError(err)
	req.Equal(fixture.alice.ID, saved.UserID)

	// The room broadcast happens on the request path.
	req.Contains(fixture.publisher.published(), "room/"+fixture.room.ID.String())

	// Fan-out is asynchronous: exactly one push per other participant,
	// never one for the sender.
	req.Eventually(func() bool {
		count := 0
		for _, topic := range fixture.publisher.published() {
			if topic == "user/"+fixture.bob.ID.String() || topic == "user/"+fixture.clara.ID.String() {
				count++
			}
		}
		return count == 2
	}, 2*time.Second, 10*time.Millisecond)
	req.NotContains(fixture.publisher.published(), "user/"+fixture.alice.ID.String())

	history, err := fixture.env.messages.GetMessagesByRoom(fixture.room.ID)
	req.NoError(err)
	req.Len(history, 1)
}

func Test_Send_Rejects_Non_Participant(t *testing.T) {
	req := require.New(t)
	fixture := newChatFixture(t, nil)

	stranger, err := fixture.env.users.CreateUser("mallory@example.com", "Mallory")
	req.NoError(err)

	_, err = fixture.chat.Send(context.Background(), fixture.room.ID, stranger.ID, ClientMessage{
		MessageText: "let me in",
		MessageHTML: "<p>let me in</p>",
		MediaType:   domain.MediaTypeText,
	})
	var denied errors.AccessDeniedError
	req.ErrorAs(err, &denied)
	req.Equal(stranger.ID.String(), denied.UserID)

	// Nothing was stored or published.
	history, err := fixture.env.messages.GetMessagesByRoom(fixture.room.ID)
	req.NoError(err)
	req.Empty(history)
	req.Empty(fixture.publisher.published())
}

func Test_Send_Censors_Message_Text(t *testing.T) {
	req := require.New(t)
	moderator, err := moderation.NewModerator([]string{"strike"}, '*')
	req.NoError(err)
	fixture := newChatFixture(t, moderator)

	saved, err := fixture.chat.Send(context.Background(), fixture.room.ID, fixture.alice.ID, ClientMessage{
		MessageText: "crew strike at CDG",
		MessageHTML: "<p>crew strike at CDG</p>",
		MediaType:   domain.MediaTypeText,
	})
	req.NoError(err)
	req.Equal("crew ****** at CDG", saved.MessageText)

	// The censored text is what history serves.
	history, err := fixture.env.messages.GetMessagesByRoom(fixture.room.ID)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("crew ****** at CDG", history[0].MessageText)
}

func Test_Send_Validates_Payload(t *testing.T) {
	req := require.New(t)
	fixture := newChatFixture(t, nil)

	_, err := fixture.chat.Send(context.Background(), fixture.room.ID, fixture.alice.ID, ClientMessage{
		MessageHTML: "<p>no text</p>",
		MediaType:   domain.MediaTypeText,
	})
	req.Error(err)
}
