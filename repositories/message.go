//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"flyte/domain"
)

type IMessageRepository interface {
	CreateInTxn(txn *badger.Txn, message domain.Message) error
	GetMessagesByRoom(roomID uuid.UUID) ([]domain.Message, error)
	GetMessagesByUser(userID uuid.UUID) ([]domain.Message, error)
	CountByRoom(roomID uuid.UUID) (int64, error)
	GetMessagesByRooms(roomIDs []uuid.UUID) (map[uuid.UUID][]domain.Message, error)
}

type MessageRepository struct {
	store *Store
}

func NewMessageRepository(store *Store) *MessageRepository {
	return &MessageRepository{store: store}
}

type messageRecord struct {
	ID          string `cbor:"id"`
	RoomID      string `cbor:"room_id"`
	UserID      string `cbor:"user_id"`
	MessageText string `cbor:"message_text"`
	MessageHTML string `cbor:"message_html"`
	MediaType   string `cbor:"media_type"`
	MediaLink   string `cbor:"media_link,omitempty"`
	CreatedAt   int64  `cbor:"created_at"`
}

// messageKey formats "msg:{room_id}:{timestamp_padded}:{uuid}" so that:
//  1. a prefix scan per room is chronologically sorted (19-digit zero
//     padding keeps lexicographic order equal to time order);
//  2. the UUID suffix disambiguates two messages landing on the same
//     nanosecond.
func messageKey(roomID uuid.UUID, at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("msg:%s:%019d:%s", roomID, at.UnixNano(), id)
}

// messageUserKey indexes the primary key per sender for newest-first
// per-user reads.
func messageUserKey(userID uuid.UUID, at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("msguser:%s:%019d:%s", userID, at.UnixNano(), id)
}

func (m *MessageRepository) CreateInTxn(txn *badger.Txn, message domain.Message) error {
	primary := messageKey(message.RoomID, message.CreatedAt, message.ID)
	if err := txn.Set([]byte(messageUserKey(message.UserID, message.CreatedAt, message.ID)), []byte(primary)); err != nil {
		return err
	}
	return setRecord(txn, primary, fromMessage(message))
}

// GetMessagesByRoom returns the room's messages newest first, using a
// reverse prefix scan over the padded-timestamp keys.
func (m *MessageRepository) GetMessagesByRoom(roomID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.store.View(func(txn *badger.Txn) error {
		var err error
		messages, err = messagesByRoomInTxn(txn, roomID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func messagesByRoomInTxn(txn *badger.Txn, roomID uuid.UUID) ([]domain.Message, error) {
	prefix := []byte("msg:" + roomID.String() + ":")
	options := badger.DefaultIteratorOptions
	options.Reverse = true
	it := txn.NewIterator(options)
	defer it.Close()

	// Seek past the newest possible key, then walk backwards.
	seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)

	var messages []domain.Message
	for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
		var record messageRecord
		err := it.Item().Value(func(val []byte) error {
			return decodeRecord(val, &record)
		})
		if err != nil {
			return nil, err
		}
		message, err := toMessage(record)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// GetMessagesByUser returns a sender's messages newest first across all
// rooms, resolving primary keys through the per-user index.
func (m *MessageRepository) GetMessagesByUser(userID uuid.UUID) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.store.View(func(txn *badger.Txn) error {
		prefix := []byte("msguser:" + userID.String() + ":")
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			var primary []byte
			err := it.Item().Value(func(val []byte) error {
				primary = append([]byte{}, val...)
				return nil
			})
			if err != nil {
				return err
			}
			var record messageRecord
			if err := getRecord(txn, string(primary), &record); err != nil {
				return err
			}
			message, err := toMessage(record)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// CountByRoom counts without loading values.
func (m *MessageRepository) CountByRoom(roomID uuid.UUID) (int64, error) {
	var count int64
	err := m.store.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:" + roomID.String() + ":")
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// GetMessagesByRooms hydrates several rooms in one read transaction. Each
// sublist is newest first; rooms without messages are absent from the map.
func (m *MessageRepository) GetMessagesByRooms(roomIDs []uuid.UUID) (map[uuid.UUID][]domain.Message, error) {
	result := make(map[uuid.UUID][]domain.Message, len(roomIDs))
	err := m.store.View(func(txn *badger.Txn) error {
		for _, roomID := range roomIDs {
			messages, err := messagesByRoomInTxn(txn, roomID)
			if err != nil {
				return err
			}
			if len(messages) > 0 {
				result[roomID] = messages
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func fromMessage(message domain.Message) messageRecord {
	return messageRecord{
		ID:          message.ID.String(),
		RoomID:      message.RoomID.String(),
		UserID:      message.UserID.String(),
		MessageText: message.MessageText,
		MessageHTML: message.MessageHTML,
		MediaType:   string(message.MediaType),
		MediaLink:   message.MediaLink,
		CreatedAt:   message.CreatedAt.UnixNano(),
	}
}

func toMessage(record messageRecord) (domain.Message, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Message{}, err
	}
	roomID, err := uuid.Parse(record.RoomID)
	if err != nil {
		return domain.Message{}, err
	}
	userID, err := uuid.Parse(record.UserID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:          id,
		RoomID:      roomID,
		UserID:      userID,
		MessageText: record.MessageText,
		MessageHTML: record.MessageHTML,
		MediaType:   domain.MediaType(record.MediaType),
		MediaLink:   record.MediaLink,
		CreatedAt:   time.Unix(0, record.CreatedAt).UTC(),
	}, nil
}
