// Package domain contains core concepts of the chat room.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Participant is an active chat identity with a liveness timestamp.
// At most one Participant exists per Name at any time.
type Participant struct {
	Name     string
	LastSeen time.Time
}

// Stale reports whether the participant has been silent for longer
// than the inactivity window at the given instant.
func (p Participant) Stale(window time.Duration, now time.Time) bool {
	return p.LastSeen.Before(now.Add(-window))
}
