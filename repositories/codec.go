package repositories

import (
	"batepapo/domain"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Key spaces of the two collections. Message entry keys embed the creation
// timestamp with 19-digit zero padding so that lexicographical iteration
// follows insertion order; the UUID suffix disambiguates two messages
// appended at the same nanosecond. A secondary "msgid:" entry maps the
// opaque message id back to its entry key for edit and delete.
const (
	participantPrefix = "participant:"
	messagePrefix     = "msg:"
	messageIDPrefix   = "msgid:"
)

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix, m.At.UnixNano(), m.ID))
}

func messageIDKey(id string) []byte {
	return []byte(messageIDPrefix + id)
}

type storedParticipant struct {
	Name     string `cbor:"name"`
	LastSeen int64  `cbor:"last_seen"`
}

type storedMessage struct {
	ID   string `cbor:"id"`
	From string `cbor:"from"`
	To   string `cbor:"to"`
	Text string `cbor:"text"`
	Kind string `cbor:"kind"`
	At   int64  `cbor:"at"`
}

func encodeParticipant(p domain.Participant) ([]byte, error) {
	return cbor.Marshal(storedParticipant{
		Name:     p.Name,
		LastSeen: p.LastSeen.UnixNano(),
	})
}

// DecodeParticipant turns a raw store value back into a Participant.
// Exported for the store inspection tooling.
func DecodeParticipant(value []byte) (domain.Participant, error) {
	var sp storedParticipant
	if err := cbor.Unmarshal(value, &sp); err != nil {
		return domain.Participant{}, err
	}
	return domain.Participant{
		Name:     sp.Name,
		LastSeen: time.Unix(0, sp.LastSeen).UTC(),
	}, nil
}

func encodeMessage(m domain.Message) ([]byte, error) {
	return cbor.Marshal(storedMessage{
		ID:   m.ID,
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Kind: string(m.Kind),
		At:   m.At.UnixNano(),
	})
}

// DecodeMessage turns a raw store value back into a Message.
// Exported for the store inspection tooling.
func DecodeMessage(value []byte) (domain.Message, error) {
	var sm storedMessage
	if err := cbor.Unmarshal(value, &sm); err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:   sm.ID,
		From: sm.From,
		To:   sm.To,
		Text: sm.Text,
		Kind: domain.Kind(sm.Kind),
		At:   time.Unix(0, sm.At).UTC(),
	}, nil
}
