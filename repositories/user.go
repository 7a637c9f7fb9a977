//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"flyte/domain"
	"flyte/errors"
)

type IUserRepository interface {
	CreateUser(email, name string) (domain.User, error)
	GetUserByID(id uuid.UUID) (domain.User, error)
	GetUserByIDInTxn(txn *badger.Txn, id uuid.UUID) (domain.User, error)
	GetUserByEmail(email string) (domain.User, error)
}

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// userRecord is the on-disk representation. Equivalent to the domain User
// but with stable CBOR field names.
type userRecord struct {
	ID        string `cbor:"id"`
	Email     string `cbor:"email"`
	Name      string `cbor:"name"`
	CreatedAt int64  `cbor:"created_at"`
}

func userKey(id uuid.UUID) string  { return "user:" + id.String() }
func emailKey(email string) string { return "useremail:" + email }

// CreateUser persists a user with a server-assigned identity. The email
// index key enforces uniqueness inside the transaction.
func (u *UserRepository) CreateUser(email, name string) (domain.User, error) {
	user := domain.User{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	err := u.store.Update(func(txn *badger.Txn) error {
		taken, err := exists(txn, emailKey(email))
		if err != nil {
			return err
		}
		if taken {
			return errors.ConflictError{Reason: "email already registered: " + email}
		}
		if err := txn.Set([]byte(emailKey(email)), []byte(user.ID.String())); err != nil {
			return err
		}
		return setRecord(txn, userKey(user.ID), fromUser(user))
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (u *UserRepository) GetUserByID(id uuid.UUID) (domain.User, error) {
	var user domain.User
	err := u.store.View(func(txn *badger.Txn) error {
		var err error
		user, err = u.GetUserByIDInTxn(txn, id)
		return err
	})
	return user, err
}

func (u *UserRepository) GetUserByIDInTxn(txn *badger.Txn, id uuid.UUID) (domain.User, error) {
	var record userRecord
	err := getRecord(txn, userKey(id), &record)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.NotFoundError{Entity: "user", ID: id.String()}
	}
	if err != nil {
		return domain.User{}, err
	}
	return toUser(record)
}

func (u *UserRepository) GetUserByEmail(email string) (domain.User, error) {
	var user domain.User
	err := u.store.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(emailKey(email)))
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return errors.NotFoundError{Entity: "user", ID: email}
		}
		if err != nil {
			return err
		}
		var id uuid.UUID
		if err := item.Value(func(val []byte) error {
			id, err = uuid.Parse(string(val))
			return err
		}); err != nil {
			return err
		}
		user, err = u.GetUserByIDInTxn(txn, id)
		return err
	})
	return user, err
}

func fromUser(user domain.User) userRecord {
	return userRecord{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt.UnixNano(),
	}
}

func toUser(record userRecord) (domain.User, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:        id,
		Email:     record.Email,
		Name:      record.Name,
		CreatedAt: time.Unix(0, record.CreatedAt).UTC(),
	}, nil
}
