package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"flyte/domain"
	"flyte/errors"
)

func Test_Create_Message_Bumps_Room_Last_Activity(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	service := env.messageService()

	alice, err := env.users.CreateUser("alice@example.com", "Alice")
	req.NoError(err)
	room := domain.Room{
		ID:        uuid.New(),
		Name:      "gate-b12",
		Type:      domain.RoomTypeGroup,
		CreatedAt: time.Now().UTC(),
	}
	req.NoError(env.rooms.CreateRoom(room))

	message, err := service.CreateMessage(context.Background(), CreateMessageRequest{
		RoomID:      room.ID,
		UserID:      alice.ID,
		MessageText: "boarding started",
		MessageHTML: "<p>boarding started</p>",
		MediaType:   domain.MediaTypeText,
	})
	req.NoError(err)
	req.NotEqual(uuid.Nil, message.ID)

	fetched, err := env.rooms.GetRoomByID(room.ID)
	req.NoError(err)
	req.NotNil(fetched.LastMessageTimestamp)
	req.Equal(message.CreatedAt, *fetched.LastMessageTimestamp)

	history, err := service.GetMessagesByRoom(room.ID)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("boarding started", history[0].MessageText)

	count, err := service.GetMessageCount(room.ID)
	req.NoError(err)
	req.Equal(int64(1), count)
}

func Test_Create_Message_Unknown_Room(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	service := env.messageService()

	alice, err := env.users.CreateUser("alice@example.com", "Alice")
	req.NoError(err)

	_, err = service.CreateMessage(context.Background(), CreateMessageRequest{
		RoomID:      uuid.New(),
		UserID:      alice.ID,
		MessageText: "hello",
		MessageHTML: "<p>hello</p>",
		MediaType:   domain.MediaTypeText,
	})
	var notFound errors.NotFoundError
	req.ErrorAs(err, &notFound)
	req.Equal("room", notFound.Entity)
}

func Test_Create_Message_Unknown_Sender(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	service := env.messageService()

	room := domain.Room{ID: uuid.New(), Name: "gate-b12", Type: domain.RoomTypeGroup, CreatedAt: time.Now().UTC()}
	req.NoError(env.rooms.CreateRoom(room))

	_, err := service.CreateMessage(context.Background(), CreateMessageRequest{
		RoomID:      room.ID,
		UserID:      uuid.New(),
		MessageText: "hello",
		MessageHTML: "<p>hello</p>",
		MediaType:   domain.MediaTypeText,
	})
	var notFound errors.NotFoundError
	req.ErrorAs(err, &notFound)
	req.Equal("user", notFound.Entity)

	// The aborted transaction must not have persisted the message.
	count, err := service.GetMessageCount(room.ID)
	req.NoError(err)
	req.Equal(int64(0), count)
}

func Test_Upload_Media_Classifies_Content(t *testing.T) {
	req := require.New(t)
	env := newTestEnv(t)
	service := env.messageService()

	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d}
	kind, link, err := service.UploadMedia(png)
	req.NoError(err)
	req.Equal(domain.MediaTypeImage, kind)
	req.True(strings.HasPrefix(link, "media/"))

	// The link resolves back to the stored blob.
	id, err := uuid.Parse(strings.TrimPrefix(link, "media/"))
	req.NoError(err)
	blob, err := env.media.GetMedia(id)
	req.NoError(err)
	req.Equal(png, blob)

	kind, _, err = service.UploadMedia([]byte("plain boarding pass text"))
	req.NoError(err)
	req.Equal(domain.MediaTypeText, kind)

	kind, _, err = service.UploadMedia([]byte{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe})
	req.NoError(err)
	req.Equal(domain.MediaTypeFile, kind)
}
