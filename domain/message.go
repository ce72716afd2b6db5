// Package domain contains core concepts of the chat room.
// This file defines Message entries of the shared log and the
// per-identity visibility rule.
package domain

import "time"

// Kind discriminates log entries.
type Kind string

const (
	// KindStatus marks system-generated join/leave notices.
	KindStatus Kind = "status"
	// KindMessage is a public message readable by everyone.
	KindMessage Kind = "message"
	// KindPrivate is a message readable only by its sender and recipient.
	KindPrivate Kind = "private_message"
)

// RecipientAll is the reserved broadcast recipient.
const RecipientAll = "Todos"

const (
	JoinText  = "entra na sala..."
	LeaveText = "sai da sala..."
)

// Message is one entry of the shared log. The ID is opaque and assigned
// by the store at creation; insertion order is the total order used for
// visibility filtering and last-N trimming.
type Message struct {
	ID   string
	From string
	To   string
	Text string
	Kind Kind
	At   time.Time
}

// VisibleTo reports whether user may read the message: public and status
// entries are visible to everyone, private ones only to their two ends.
func (m Message) VisibleTo(user string) bool {
	if m.Kind != KindPrivate {
		return true
	}
	return m.From == user || m.To == user
}

// StatusMessage builds a system notice broadcast to the whole room.
func StatusMessage(from, text string, at time.Time) Message {
	return Message{
		From: from,
		To:   RecipientAll,
		Text: text,
		Kind: KindStatus,
		At:   at,
	}
}
