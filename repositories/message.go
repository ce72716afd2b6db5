//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"batepapo/domain"
	apperrors "batepapo/errors"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Append(message domain.Message) (domain.Message, error)
	GetByID(id string) (domain.Message, error)
	ListVisible(user string, limit *int) ([]domain.Message, error)
	UpdateOwned(id, editor string, cmd domain.SendCommand) (domain.Message, error)
	DeleteOwned(id, requester string) error
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// putMessage writes the log entry and its id index inside txn.
// Shared with ParticipantRepository so join/leave notices commit
// atomically with the participant write.
func putMessage(txn *badger.Txn, m domain.Message) error {
	value, err := encodeMessage(m)
	if err != nil {
		return err
	}
	key := messageKey(m)
	if err := txn.Set(key, value); err != nil {
		return err
	}
	return txn.Set(messageIDKey(m.ID), key)
}

// newMessage stamps identity and creation time on a log entry.
func newMessage(m domain.Message) domain.Message {
	m.ID = uuid.New().String()
	if m.At.IsZero() {
		m.At = time.Now().UTC()
	}
	return m
}

// Append inserts a message at the tail of the log and returns it with
// its assigned id.
func (r MessageRepository) Append(message domain.Message) (domain.Message, error) {
	message = newMessage(message)
	err := r.db.Update(func(txn *badger.Txn) error {
		return putMessage(txn, message)
	})
	if err != nil {
		return domain.Message{}, err
	}
	r.log.Debug("Message appended", "id", message.ID, "kind", message.Kind)
	return message, nil
}

// GetByID resolves the id index and reads the entry.
func (r MessageRepository) GetByID(id string) (domain.Message, error) {
	var message domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		_, message, err = getMessage(txn, id)
		return err
	})
	return message, err
}

// getMessage resolves "msgid:{id}" to the entry key, then reads the entry.
func getMessage(txn *badger.Txn, id string) ([]byte, domain.Message, error) {
	idItem, err := txn.Get(messageIDKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.Message{}, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, domain.Message{}, err
	}
	entryKey, err := idItem.ValueCopy(nil)
	if err != nil {
		return nil, domain.Message{}, err
	}
	entryItem, err := txn.Get(entryKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.Message{}, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, domain.Message{}, err
	}
	var message domain.Message
	err = entryItem.Value(func(value []byte) error {
		message, err = DecodeMessage(value)
		return err
	})
	return entryKey, message, err
}

// ListVisible walks the log in insertion order and keeps the entries the
// given user may read. A non-nil limit trims to the last limit entries,
// preserving the original order.
func (r MessageRepository) ListVisible(user string, limit *int) ([]domain.Message, error) {
	var visible []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(messagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				message, err := DecodeMessage(value)
				if err != nil {
					return err
				}
				if message.VisibleTo(user) {
					visible = append(visible, message)
				}
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
	if limit != nil && len(visible) > *limit {
		visible = visible[len(visible)-*limit:]
	}
	return visible, nil
}

// UpdateOwned replaces to/text/kind of the message in place, preserving
// id, sender and original creation time. The ownership check runs inside
// the transaction so a concurrent delete cannot slip between check and write.
func (r MessageRepository) UpdateOwned(id, editor string, cmd domain.SendCommand) (domain.Message, error) {
	var updated domain.Message
	err := r.db.Update(func(txn *badger.Txn) error {
		entryKey, message, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		if message.From != editor {
			return apperrors.ErrForbidden
		}
		message.To = cmd.To
		message.Text = cmd.Text
		message.Kind = cmd.Kind
		value, err := encodeMessage(message)
		if err != nil {
			return err
		}
		if err := txn.Set(entryKey, value); err != nil {
			return err
		}
		updated = message
		return nil
	})
	if err != nil {
		return domain.Message{}, err
	}
	return updated, nil
}

// DeleteOwned removes the entry and its id index.
func (r MessageRepository) DeleteOwned(id, requester string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		entryKey, message, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		if message.From != requester {
			return apperrors.ErrForbidden
		}
		if err := txn.Delete(entryKey); err != nil {
			return err
		}
		return txn.Delete(messageIDKey(id))
	})
}
