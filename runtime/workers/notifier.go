package workers

import (
	"context"
	"log/slog"

	"flyte/contract"
	"flyte/domain"
	"flyte/repositories"
)

// Notifier is the fan-out worker. It runs off the request path: the chat
// service returns as soon as the message is committed and published, while
// the notifier resolves the room's participants and pushes a typed payload
// to each one's personal topic.
//
// Failure to deliver to one participant never aborts delivery to the
// others; failures are logged, never surfaced to the sender.
type Notifier struct {
	log          *slog.Logger
	participants repositories.IParticipantRepository
	publisher    contract.Publisher
	jobs         <-chan domain.Notification
}

func NewNotifier(
	log *slog.Logger,
	participants repositories.IParticipantRepository,
	publisher contract.Publisher,
	jobs <-chan domain.Notification,
) *Notifier {
	return &Notifier{
		log:          log,
		participants: participants,
		publisher:    publisher,
		jobs:         jobs,
	}
}

func (w *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping notifier")
			return nil
		case job := <-w.jobs:
			w.notify(job)
		}
	}
}

// notify pushes the message to every participant of the room except its
// sender.
func (w *Notifier) notify(job domain.Notification) {
	recipients, err := w.participants.OtherParticipants(job.RoomID, job.Message.UserID)
	if err != nil {
		w.log.Error("participant resolution failed", "room", job.RoomID, "err", err)
		return
	}

	payload := domain.Payload{Type: domain.PayloadChatMessage, Data: job.Message}
	for _, userID := range recipients {
		if err := w.publisher.Publish("user/"+userID.String(), payload); err != nil {
			w.log.Error("notification push failed", "room", job.RoomID, "user", userID, "err", err)
		}
	}
}
