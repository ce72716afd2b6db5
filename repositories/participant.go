//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant_repository.go -package=mocks
package repositories

import (
	"batepapo/domain"
	apperrors "batepapo/errors"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// conflictRetries bounds the optimistic-concurrency retry loop on
// badger.ErrConflict. A retried register re-reads the name and surfaces
// ErrNameTaken if the competing transaction won.
const conflictRetries = 3

type IParticipantRepository interface {
	Register(name string, now time.Time) error
	Touch(name string, now time.Time) error
	Exists(name string) (bool, error)
	List() ([]domain.Participant, error)
	EvictStale(window time.Duration, now time.Time) ([]domain.Message, error)
}

type ParticipantRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewParticipantRepository(db *badger.DB, log *slog.Logger) ParticipantRepository {
	return ParticipantRepository{db: db, log: log}
}

// Register creates the participant and its join notice in one transaction:
// both writes become visible together or not at all. Two concurrent
// registrations of the same name conflict at commit; the loser retries,
// sees the committed row and fails with ErrNameTaken.
func (r ParticipantRepository) Register(name string, now time.Time) error {
	participant := domain.Participant{Name: name, LastSeen: now}
	join := newMessage(domain.StatusMessage(name, domain.JoinText, now))

	return r.retryOnConflict(func(txn *badger.Txn) error {
		_, err := txn.Get(participantKey(name))
		if err == nil {
			return apperrors.ErrNameTaken
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		value, err := encodeParticipant(participant)
		if err != nil {
			return err
		}
		if err := txn.Set(participantKey(name), value); err != nil {
			return err
		}
		return putMessage(txn, join)
	})
}

// Touch refreshes the liveness timestamp. LastSeen never decreases, so a
// delayed heartbeat cannot roll back a newer one.
func (r ParticipantRepository) Touch(name string, now time.Time) error {
	return r.retryOnConflict(func(txn *badger.Txn) error {
		participant, err := readParticipant(txn, name)
		if err != nil {
			return err
		}
		if now.After(participant.LastSeen) {
			participant.LastSeen = now
		}
		value, err := encodeParticipant(participant)
		if err != nil {
			return err
		}
		return txn.Set(participantKey(name), value)
	})
}

func (r ParticipantRepository) Exists(name string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(participantKey(name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns a snapshot of all current participants.
func (r ParticipantRepository) List() ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(participantPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				participant, err := DecodeParticipant(value)
				if err != nil {
					return err
				}
				participants = append(participants, participant)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participants, nil
}

// EvictStale removes every participant silent for longer than the window
// and appends one departure notice per removal. The snapshot scan only
// nominates candidates; each removal re-reads LastSeen in its own
// transaction, so a heartbeat landing between scan and removal keeps the
// participant alive. A conflicting transaction on one name never blocks
// the eviction of the others.
func (r ParticipantRepository) EvictStale(window time.Duration, now time.Time) ([]domain.Message, error) {
	candidates, err := r.List()
	if err != nil {
		return nil, err
	}

	var departures []domain.Message
	var errs []error
	for _, candidate := range candidates {
		if !candidate.Stale(window, now) {
			continue
		}
		leave := newMessage(domain.StatusMessage(candidate.Name, domain.LeaveText, now))
		evicted := false
		err := r.db.Update(func(txn *badger.Txn) error {
			evicted = false
			participant, err := readParticipant(txn, candidate.Name)
			if errors.Is(err, apperrors.ErrNotLoggedIn) {
				// Already gone, nothing to do.
				return nil
			}
			if err != nil {
				return err
			}
			if !participant.Stale(window, now) {
				// A heartbeat won the race, keep the participant.
				return nil
			}
			if err := txn.Delete(participantKey(candidate.Name)); err != nil {
				return err
			}
			if err := putMessage(txn, leave); err != nil {
				return err
			}
			evicted = true
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			r.log.Debug("Eviction lost a race, skipping", "name", candidate.Name)
			continue
		}
		if err != nil {
			r.log.Warn("Failed to evict participant", "name", candidate.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		if evicted {
			departures = append(departures, leave)
		}
	}
	return departures, errors.Join(errs...)
}

func readParticipant(txn *badger.Txn, name string) (domain.Participant, error) {
	item, err := txn.Get(participantKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Participant{}, apperrors.ErrNotLoggedIn
	}
	if err != nil {
		return domain.Participant{}, err
	}
	var participant domain.Participant
	err = item.Value(func(value []byte) error {
		participant, err = DecodeParticipant(value)
		return err
	})
	return participant, err
}

func (r ParticipantRepository) retryOnConflict(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = r.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}
