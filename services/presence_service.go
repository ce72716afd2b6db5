//go:generate go run go.uber.org/mock/mockgen -source=presence_service.go -destination=../mocks/mock_presence_service.go -package=mocks
package services

import (
	"batepapo/domain"
	apperrors "batepapo/errors"
	"batepapo/repositories"
	"context"
	"fmt"
	"log/slog"
	"time"
)

type IPresenceService interface {
	Register(ctx context.Context, name string) error
	Heartbeat(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	ListAll(ctx context.Context) ([]domain.Participant, error)
	EvictStale(ctx context.Context, window time.Duration, now time.Time) ([]domain.Message, error)
}

// PresenceService owns the participant lifecycle: registration, heartbeat
// refresh and time-based eviction. It holds no state of its own; every
// operation reads and writes through the repository.
type PresenceService struct {
	participants repositories.IParticipantRepository
	log          *slog.Logger
}

func NewPresenceService(participants repositories.IParticipantRepository, log *slog.Logger) *PresenceService {
	return &PresenceService{participants: participants, log: log}
}

// Register creates the participant and broadcasts the join notice.
// Names are case-sensitive and must be non-empty.
func (s *PresenceService) Register(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	if err := s.participants.Register(name, time.Now().UTC()); err != nil {
		return err
	}
	s.log.Info("Participant entered the room", "name", name)
	return nil
}

// Heartbeat refreshes the liveness timestamp of a current participant.
func (s *PresenceService) Heartbeat(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.participants.Touch(name, time.Now().UTC())
}

func (s *PresenceService) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if name == "" {
		return false, nil
	}
	return s.participants.Exists(name)
}

func (s *PresenceService) ListAll(ctx context.Context) ([]domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.participants.List()
}

// EvictStale removes every participant silent for longer than the window
// and returns the departure notices written for them.
func (s *PresenceService) EvictStale(ctx context.Context, window time.Duration, now time.Time) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	departures, err := s.participants.EvictStale(window, now)
	for _, departure := range departures {
		s.log.Info("Participant left the room", "name", departure.From)
	}
	return departures, err
}
