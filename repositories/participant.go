//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant_repository.go -package=mocks
package repositories

import (
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"flyte/domain"
	"flyte/errors"
)

type IParticipantRepository interface {
	AddParticipant(roomID, userID uuid.UUID) error
	EnsureParticipantInTxn(txn *badger.Txn, roomID, userID uuid.UUID) error
	RemoveParticipant(roomID, userID uuid.UUID) error
	IsParticipant(roomID, userID uuid.UUID) (bool, error)
	ListByRoom(roomID uuid.UUID) ([]domain.RoomParticipant, error)
	OtherParticipants(roomID, userID uuid.UUID) ([]uuid.UUID, error)
}

type ParticipantRepository struct {
	store *Store
}

func NewParticipantRepository(store *Store) *ParticipantRepository {
	return &ParticipantRepository{store: store}
}

type participantRecord struct {
	RoomID    string `cbor:"room_id"`
	UserID    string `cbor:"user_id"`
	CreatedAt int64  `cbor:"created_at"`
}

// participantKey makes (room, user) unique by construction.
func participantKey(roomID, userID uuid.UUID) string {
	return "rp:" + roomID.String() + ":" + userID.String()
}

// AddParticipant joins a user to a room; joining twice is a conflict.
func (p *ParticipantRepository) AddParticipant(roomID, userID uuid.UUID) error {
	return p.store.Update(func(txn *badger.Txn) error {
		present, err := exists(txn, participantKey(roomID, userID))
		if err != nil {
			return err
		}
		if present {
			return errors.ConflictError{
				Reason: "user " + userID.String() + " already joined room " + roomID.String(),
			}
		}
		return p.EnsureParticipantInTxn(txn, roomID, userID)
	})
}

// EnsureParticipantInTxn is the idempotent variant used by the room
// allocator: a second journey mapping the same user to the same room is a
// no-op, not a conflict.
func (p *ParticipantRepository) EnsureParticipantInTxn(txn *badger.Txn, roomID, userID uuid.UUID) error {
	record := participantRecord{
		RoomID:    roomID.String(),
		UserID:    userID.String(),
		CreatedAt: time.Now().UTC().UnixNano(),
	}
	return setRecord(txn, participantKey(roomID, userID), record)
}

func (p *ParticipantRepository) RemoveParticipant(roomID, userID uuid.UUID) error {
	return p.store.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(participantKey(roomID, userID)))
	})
}

func (p *ParticipantRepository) IsParticipant(roomID, userID uuid.UUID) (bool, error) {
	var present bool
	err := p.store.View(func(txn *badger.Txn) error {
		var err error
		present, err = exists(txn, participantKey(roomID, userID))
		return err
	})
	return present, err
}

func (p *ParticipantRepository) ListByRoom(roomID uuid.UUID) ([]domain.RoomParticipant, error) {
	var participants []domain.RoomParticipant
	err := p.store.View(func(txn *badger.Txn) error {
		prefix := []byte("rp:" + roomID.String() + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record participantRecord
			err := it.Item().Value(func(val []byte) error {
				return decodeRecord(val, &record)
			})
			if err != nil {
				return err
			}
			participant, err := toParticipant(record)
			if err != nil {
				return err
			}
			participants = append(participants, participant)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// OtherParticipants returns the user ids of everyone in the room except the
// given user. This is the fan-out recipient list.
func (p *ParticipantRepository) OtherParticipants(roomID, userID uuid.UUID) ([]uuid.UUID, error) {
	participants, err := p.ListByRoom(roomID)
	if err != nil {
		return nil, err
	}
	var others []uuid.UUID
	for _, participant := range participants {
		if participant.UserID != userID {
			others = append(others, participant.UserID)
		}
	}
	return others, nil
}

func toParticipant(record participantRecord) (domain.RoomParticipant, error) {
	roomID, err := uuid.Parse(record.RoomID)
	if err != nil {
		return domain.RoomParticipant{}, err
	}
	userID, err := uuid.Parse(record.UserID)
	if err != nil {
		return domain.RoomParticipant{}, err
	}
	return domain.RoomParticipant{
		RoomID:    roomID,
		UserID:    userID,
		CreatedAt: time.Unix(0, record.CreatedAt).UTC(),
	}, nil
}
