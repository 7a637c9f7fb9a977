// Package repositories persists flyte entities in BadgerDB. Records are
// CBOR-encoded under typed key prefixes; natural-key indexes make
// check-then-create sequences atomic inside a single transaction.
package repositories

import (
	stderrors "errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
)

// maxTxnRetries bounds the retry loop on serialization conflicts. Each retry
// re-runs the whole closure against a fresh snapshot.
const maxTxnRetries = 5

type Store struct {
	db  *badger.DB
	log *slog.Logger
}

func NewStore(db *badger.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) DB() *badger.DB { return s.db }

// Update runs fn in a managed read-write transaction. Badger detects
// read-write conflicts between concurrent transactions at commit time; on
// ErrConflict the closure is retried against the new state, so a
// find-or-create that lost the race observes the winner's record on the next
// attempt. Any other error aborts the transaction and is returned unchanged.
func (s *Store) Update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 1; attempt <= maxTxnRetries; attempt++ {
		err = s.db.Update(fn)
		if !stderrors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debug("transaction conflict, retrying", "attempt", attempt)
	}
	return err
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(txn *badger.Txn) error) error {
	return s.db.View(fn)
}

func setRecord(txn *badger.Txn, key string, v any) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

func decodeRecord(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

func getRecord(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return cbor.Unmarshal(val, v)
	})
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}
