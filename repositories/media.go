//go:generate go run go.uber.org/mock/mockgen -source=media.go -destination=../mocks/mock_media_repository.go -package=mocks
package repositories

import (
	stderrors "errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"flyte/errors"
)

type IMediaRepository interface {
	StoreMedia(data []byte) (uuid.UUID, error)
	GetMedia(id uuid.UUID) ([]byte, error)
}

// MediaRepository stores raw media blobs referenced by message media links.
type MediaRepository struct {
	store *Store
}

func NewMediaRepository(store *Store) *MediaRepository {
	return &MediaRepository{store: store}
}

func mediaKey(id uuid.UUID) string { return "media:" + id.String() }

func (m *MediaRepository) StoreMedia(data []byte) (uuid.UUID, error) {
	id := uuid.New()
	err := m.store.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(mediaKey(id)), data)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (m *MediaRepository) GetMedia(id uuid.UUID) ([]byte, error) {
	var data []byte
	err := m.store.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(mediaKey(id)))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.NotFoundError{Entity: "media", ID: id.String()}
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
