//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"batepapo/domain"
	apperrors "batepapo/errors"
	"batepapo/moderation"
	"batepapo/repositories"
	"batepapo/search"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/abadojack/whatlanggo"
	"github.com/go-playground/validator/v10"
)

// searchFetchLimit bounds how many index hits one search evaluates before
// visibility filtering.
const searchFetchLimit = 100

type IMessageService interface {
	Send(ctx context.Context, from string, cmd domain.SendCommand) (domain.Message, error)
	ListVisible(ctx context.Context, forUser string, limit *int) ([]domain.Message, error)
	Edit(ctx context.Context, id, editor string, cmd domain.SendCommand) error
	Delete(ctx context.Context, id, requester string) error
	Search(ctx context.Context, forUser, terms string) ([]domain.Message, error)
}

// MessageService owns the shared message log: creation, per-identity
// visibility filtering, edit and delete by sender, and full-text search.
// Sender liveness is read through the presence service on every send.
type MessageService struct {
	messages  repositories.IMessageRepository
	presence  IPresenceService
	moderator *moderation.Moderator
	index     *search.MessageIndex
	validate  *validator.Validate
	log       *slog.Logger
}

func NewMessageService(
	messages repositories.IMessageRepository,
	presence IPresenceService,
	moderator *moderation.Moderator,
	index *search.MessageIndex,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		messages:  messages,
		presence:  presence,
		moderator: moderator,
		index:     index,
		validate:  validator.New(),
		log:       log,
	}
}

// Send validates the command, checks the sender is present, censors the
// body and appends the message to the log.
func (s *MessageService) Send(ctx context.Context, from string, cmd domain.SendCommand) (domain.Message, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	present, err := s.presence.Exists(ctx, from)
	if err != nil {
		return domain.Message{}, err
	}
	if !present {
		return domain.Message{}, apperrors.ErrSenderNotLoggedIn
	}

	text := s.censor(from, cmd.Text)
	message, err := s.messages.Append(domain.Message{
		From: from,
		To:   cmd.To,
		Text: text,
		Kind: cmd.Kind,
	})
	if err != nil {
		return domain.Message{}, err
	}
	s.reindex(message)
	return message, nil
}

// ListVisible returns the messages the user may read, in insertion order.
// A non-nil limit must be positive and trims to the most recent entries.
func (s *MessageService) ListVisible(ctx context.Context, forUser string, limit *int) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit != nil && *limit <= 0 {
		return nil, apperrors.ErrInvalidLimit
	}
	return s.messages.ListVisible(forUser, limit)
}

// Edit replaces to/text/kind of an owned message in place.
func (s *MessageService) Edit(ctx context.Context, id, editor string, cmd domain.SendCommand) error {
	if err := s.validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	present, err := s.presence.Exists(ctx, editor)
	if err != nil {
		return err
	}
	if !present {
		return apperrors.ErrSenderNotLoggedIn
	}

	cmd.Text = s.censor(editor, cmd.Text)
	updated, err := s.messages.UpdateOwned(id, editor, cmd)
	if err != nil {
		return err
	}
	s.reindex(updated)
	return nil
}

// Delete removes an owned message from the log and the index.
func (s *MessageService) Delete(ctx context.Context, id, requester string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.messages.DeleteOwned(id, requester); err != nil {
		return err
	}
	if err := s.index.Remove(id); err != nil {
		s.log.Warn("Failed to drop message from index", "id", id, "error", err)
	}
	return nil
}

// Search matches the terms against message bodies, then re-reads every hit
// from the store and keeps only what the user may see, in insertion order.
func (s *MessageService) Search(ctx context.Context, forUser, terms string) ([]domain.Message, error) {
	if terms == "" {
		return nil, fmt.Errorf("%w: query is required", apperrors.ErrValidation)
	}
	ids, err := s.index.Search(ctx, terms, searchFetchLimit)
	if err != nil {
		return nil, err
	}

	var matches []domain.Message
	for _, id := range ids {
		message, err := s.messages.GetByID(id)
		if errors.Is(err, apperrors.ErrNotFound) {
			// The index can lag behind a delete.
			continue
		}
		if err != nil {
			return nil, err
		}
		if message.VisibleTo(forUser) {
			matches = append(matches, message)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].At.Equal(matches[j].At) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].At.Before(matches[j].At)
	})
	return matches, nil
}

func (s *MessageService) censor(from, text string) string {
	censored, found := s.moderator.Censor(text)
	if len(found) > 0 {
		info := whatlanggo.Detect(text)
		s.log.Info("Censored message content",
			"from", from, "lang", info.Lang.Iso6391(), "words", len(found))
	}
	return censored
}

func (s *MessageService) reindex(message domain.Message) {
	if err := s.index.Index(message.ID, message.Text); err != nil {
		s.log.Warn("Failed to index message", "id", message.ID, "error", err)
	}
}
