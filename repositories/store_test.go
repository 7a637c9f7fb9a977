package repositories

import (
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db, slog.Default())
}

func Test_Record_Roundtrip(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	type payload struct {
		Name  string `cbor:"name"`
		Count int    `cbor:"count"`
	}
	written := payload{Name: "gate-change", Count: 3}

	err := store.Update(func(txn *badger.Txn) error {
		return setRecord(txn, "test:1", written)
	})
	req.NoError(err)

	var read payload
	err = store.View(func(txn *badger.Txn) error {
		return getRecord(txn, "test:1", &read)
	})
	req.NoError(err)
	req.Equal(written, read)
}

func Test_Exists_Distinguishes_Missing_Keys(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	err := store.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("test:present"), []byte("x"))
	})
	req.NoError(err)

	err = store.View(func(txn *badger.Txn) error {
		present, err := exists(txn, "test:present")
		req.NoError(err)
		req.True(present)

		absent, err := exists(txn, "test:absent")
		req.NoError(err)
		req.False(absent)
		return nil
	})
	req.NoError(err)
}
