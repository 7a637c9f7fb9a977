//go:generate go run go.uber.org/mock/mockgen -source=journey.go -destination=../mocks/mock_journey_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"flyte/domain"
	"flyte/errors"
)

type IJourneyRepository interface {
	CreateInTxn(txn *badger.Txn, journey domain.Journey) error
	GetJourneyByID(id uuid.UUID) (domain.Journey, error)
	GetJourneysByUser(userID uuid.UUID) ([]domain.Journey, error)
}

type JourneyRepository struct {
	store *Store
}

func NewJourneyRepository(store *Store) *JourneyRepository {
	return &JourneyRepository{store: store}
}

type journeyRecord struct {
	ID              string `cbor:"id"`
	UserID          string `cbor:"user_id"`
	Source          string `cbor:"source"`
	Destination     string `cbor:"destination"`
	DepartTime      int64  `cbor:"depart_time"`
	ArrivalTime     int64  `cbor:"arrival_time"`
	FlightNumber    string `cbor:"flight_number"`
	SourceSlot      string `cbor:"source_slot"`
	DestinationSlot string `cbor:"destination_slot"`
	FlightRoom      string `cbor:"flight_room"`
	SourceRoom      string `cbor:"source_room"`
	DestinationRoom string `cbor:"destination_room"`
	CreatedAt       int64  `cbor:"created_at"`
}

func journeyKey(id uuid.UUID) string { return "journey:" + id.String() }

func journeyUserKey(userID, journeyID uuid.UUID) string {
	return "journeyuser:" + userID.String() + ":" + journeyID.String()
}

// dupProbeKey is the structural-equality probe over the journey tuple.
// Identity, timestamps and room ids are excluded: inside the allocation
// transaction the rooms are a pure function of the remaining fields.
func dupProbeKey(j domain.Journey) string {
	return fmt.Sprintf("journeydup:%s|%s|%s|%d|%d|%s|%s|%s",
		j.UserID, j.Source, j.Destination,
		j.DepartTime.UTC().UnixNano(), j.ArrivalTime.UTC().UnixNano(),
		j.FlightNumber, j.SourceSlot, j.DestinationSlot,
	)
}

// CreateInTxn persists a journey within the caller's transaction. The
// duplicate probe key doubles as a uniqueness constraint: an identical
// journey submitted twice fails with a ConflictError, and two
// near-simultaneous identical submissions collide on the probe read so that
// only one commit succeeds.
func (j *JourneyRepository) CreateInTxn(txn *badger.Txn, journey domain.Journey) error {
	probe := dupProbeKey(journey)
	duplicate, err := exists(txn, probe)
	if err != nil {
		return err
	}
	if duplicate {
		return errors.ConflictError{Reason: "duplicate journey"}
	}

	if err := txn.Set([]byte(probe), []byte(journey.ID.String())); err != nil {
		return err
	}
	if err := txn.Set([]byte(journeyUserKey(journey.UserID, journey.ID)), []byte(journey.ID.String())); err != nil {
		return err
	}
	return setRecord(txn, journeyKey(journey.ID), fromJourney(journey))
}

func (j *JourneyRepository) GetJourneyByID(id uuid.UUID) (domain.Journey, error) {
	var journey domain.Journey
	err := j.store.View(func(txn *badger.Txn) error {
		var err error
		journey, err = j.getInTxn(txn, id)
		return err
	})
	return journey, err
}

// GetJourneysByUser scans the per-user index and resolves each journey.
func (j *JourneyRepository) GetJourneysByUser(userID uuid.UUID) ([]domain.Journey, error) {
	var journeys []domain.Journey
	err := j.store.View(func(txn *badger.Txn) error {
		prefix := []byte("journeyuser:" + userID.String() + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var id uuid.UUID
			err := it.Item().Value(func(val []byte) error {
				var err error
				id, err = uuid.Parse(string(val))
				return err
			})
			if err != nil {
				return err
			}
			journey, err := j.getInTxn(txn, id)
			if err != nil {
				return err
			}
			journeys = append(journeys, journey)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return journeys, nil
}

func (j *JourneyRepository) getInTxn(txn *badger.Txn, id uuid.UUID) (domain.Journey, error) {
	var record journeyRecord
	err := getRecord(txn, journeyKey(id), &record)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Journey{}, errors.NotFoundError{Entity: "journey", ID: id.String()}
	}
	if err != nil {
		return domain.Journey{}, err
	}
	return toJourney(record)
}

func fromJourney(j domain.Journey) journeyRecord {
	return journeyRecord{
		ID:              j.ID.String(),
		UserID:          j.UserID.String(),
		Source:          j.Source,
		Destination:     j.Destination,
		DepartTime:      j.DepartTime.UTC().UnixNano(),
		ArrivalTime:     j.ArrivalTime.UTC().UnixNano(),
		FlightNumber:    j.FlightNumber,
		SourceSlot:      j.SourceSlot,
		DestinationSlot: j.DestinationSlot,
		FlightRoom:      j.FlightRoomID.String(),
		SourceRoom:      j.SourceRoomID.String(),
		DestinationRoom: j.DestinationRoomID.String(),
		CreatedAt:       j.CreatedAt.UnixNano(),
	}
}

func toJourney(record journeyRecord) (domain.Journey, error) {
	ids := make([]uuid.UUID, 0, 5)
	for _, raw := range []string{record.ID, record.UserID, record.FlightRoom, record.SourceRoom, record.DestinationRoom} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return domain.Journey{}, err
		}
		ids = append(ids, id)
	}
	return domain.Journey{
		ID:                ids[0],
		UserID:            ids[1],
		Source:            record.Source,
		Destination:       record.Destination,
		DepartTime:        time.Unix(0, record.DepartTime).UTC(),
		ArrivalTime:       time.Unix(0, record.ArrivalTime).UTC(),
		FlightNumber:      record.FlightNumber,
		SourceSlot:        record.SourceSlot,
		DestinationSlot:   record.DestinationSlot,
		FlightRoomID:      ids[2],
		SourceRoomID:      ids[3],
		DestinationRoomID: ids[4],
		CreatedAt:         time.Unix(0, record.CreatedAt).UTC(),
	}, nil
}
