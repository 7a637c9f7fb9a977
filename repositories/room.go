//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"flyte/domain"
	"flyte/errors"
)

type IRoomRepository interface {
	CreateRoom(room domain.Room) error
	GetRoomByID(id uuid.UUID) (domain.Room, error)
	GetRoomByIDInTxn(txn *badger.Txn, id uuid.UUID) (domain.Room, error)
	GetRoomsByIDs(ids []uuid.UUID) ([]domain.Room, error)
	FindByNaturalKeyInTxn(txn *badger.Txn, roomType domain.RoomType, key string) (domain.Room, bool, error)
	CreateKeyedInTxn(txn *badger.Txn, room domain.Room, key string) error
	SetLastMessageInTxn(txn *badger.Txn, roomID uuid.UUID, at time.Time) error
}

type RoomRepository struct {
	store *Store
}

func NewRoomRepository(store *Store) *RoomRepository {
	return &RoomRepository{store: store}
}

type roomRecord struct {
	ID          string `cbor:"id"`
	Name        string `cbor:"name"`
	Description string `cbor:"description"`
	Type        string `cbor:"type"`
	ExpiryTime  *int64 `cbor:"expiry_time,omitempty"`
	LastMessage *int64 `cbor:"last_message,omitempty"`
	CreatedAt   int64  `cbor:"created_at"`
}

func roomKey(id uuid.UUID) string { return "room:" + id.String() }

// naturalKey indexes a room by the tuple the allocator deduplicates on:
// the flight number for FLIGHT rooms, "{location}|{slotKey}" for lounges.
func naturalKey(roomType domain.RoomType, key string) string {
	return "roomkey:" + string(roomType) + ":" + key
}

// CreateRoom persists a room without a natural key (GROUP/DIRECT rooms).
func (r *RoomRepository) CreateRoom(room domain.Room) error {
	return r.store.Update(func(txn *badger.Txn) error {
		return setRecord(txn, roomKey(room.ID), fromRoom(room))
	})
}

func (r *RoomRepository) GetRoomByID(id uuid.UUID) (domain.Room, error) {
	var room domain.Room
	err := r.store.View(func(txn *badger.Txn) error {
		var err error
		room, err = r.GetRoomByIDInTxn(txn, id)
		return err
	})
	return room, err
}

func (r *RoomRepository) GetRoomByIDInTxn(txn *badger.Txn, id uuid.UUID) (domain.Room, error) {
	var record roomRecord
	err := getRecord(txn, roomKey(id), &record)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, errors.NotFoundError{Entity: "room", ID: id.String()}
	}
	if err != nil {
		return domain.Room{}, err
	}
	return toRoom(record)
}

func (r *RoomRepository) GetRoomsByIDs(ids []uuid.UUID) ([]domain.Room, error) {
	rooms := make([]domain.Room, 0, len(ids))
	err := r.store.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			room, err := r.GetRoomByIDInTxn(txn, id)
			if err != nil {
				return err
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// FindByNaturalKeyInTxn resolves the room currently bound to a natural key.
// The read is tracked by the transaction, so a concurrent creator of the
// same key forces a conflict at commit instead of a silent duplicate.
func (r *RoomRepository) FindByNaturalKeyInTxn(txn *badger.Txn, roomType domain.RoomType, key string) (domain.Room, bool, error) {
	item, err := txn.Get([]byte(naturalKey(roomType, key)))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, false, nil
	}
	if err != nil {
		return domain.Room{}, false, err
	}

	var id uuid.UUID
	if err := item.Value(func(val []byte) error {
		id, err = uuid.Parse(string(val))
		return err
	}); err != nil {
		return domain.Room{}, false, err
	}

	room, err := r.GetRoomByIDInTxn(txn, id)
	if err != nil {
		return domain.Room{}, false, err
	}
	return room, true, nil
}

// CreateKeyedInTxn persists a room and binds its natural key within the
// caller's transaction.
func (r *RoomRepository) CreateKeyedInTxn(txn *badger.Txn, room domain.Room, key string) error {
	if err := txn.Set([]byte(naturalKey(room.Type, key)), []byte(room.ID.String())); err != nil {
		return err
	}
	return setRecord(txn, roomKey(room.ID), fromRoom(room))
}

// SetLastMessageInTxn bumps the room's last-activity marker. Last write
// wins; commit order of the surrounding message transaction defines it.
func (r *RoomRepository) SetLastMessageInTxn(txn *badger.Txn, roomID uuid.UUID, at time.Time) error {
	room, err := r.GetRoomByIDInTxn(txn, roomID)
	if err != nil {
		return err
	}
	room.LastMessageTimestamp = &at
	return setRecord(txn, roomKey(roomID), fromRoom(room))
}

func fromRoom(room domain.Room) roomRecord {
	record := roomRecord{
		ID:          room.ID.String(),
		Name:        room.Name,
		Description: room.Description,
		Type:        string(room.Type),
		CreatedAt:   room.CreatedAt.UnixNano(),
	}
	if room.ExpiryTime != nil {
		expiry := room.ExpiryTime.UnixNano()
		record.ExpiryTime = &expiry
	}
	if room.LastMessageTimestamp != nil {
		last := room.LastMessageTimestamp.UnixNano()
		record.LastMessage = &last
	}
	return record
}

func toRoom(record roomRecord) (domain.Room, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Room{}, err
	}
	room := domain.Room{
		ID:          id,
		Name:        record.Name,
		Description: record.Description,
		Type:        domain.RoomType(record.Type),
		CreatedAt:   time.Unix(0, record.CreatedAt).UTC(),
	}
	if record.ExpiryTime != nil {
		expiry := time.Unix(0, *record.ExpiryTime).UTC()
		room.ExpiryTime = &expiry
	}
	if record.LastMessage != nil {
		last := time.Unix(0, *record.LastMessage).UTC()
		room.LastMessageTimestamp = &last
	}
	return room, nil
}
