package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chat-vault/domain"
	"chat-vault/errors"
	"chat-vault/moderation"
	"chat-vault/repositories"
	"chat-vault/validation"

	"github.com/google/uuid"
)

// Broadcaster receives every successfully persisted message. Delivery is
// best-effort; a broadcast failure never fails the admission.
type Broadcaster interface {
	Publish(message domain.Message)
}

type IMessageService interface {
	Admit(ctx context.Context, payload validation.MessagePayload) (domain.Message, error)
}

// MessageService is the only writer path into the store.
type MessageService struct {
	repository  repositories.IMessageRepository
	validator   *validation.Validator
	filter      *moderation.Filter
	broadcaster Broadcaster
	log         *slog.Logger
	now         func() time.Time
}

func NewMessageService(
	repository repositories.IMessageRepository,
	validator *validation.Validator,
	filter *moderation.Filter,
	broadcaster Broadcaster,
	log *slog.Logger,
) *MessageService {
	return &MessageService{
		repository:  repository,
		validator:   validator,
		filter:      filter,
		broadcaster: broadcaster,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Admit runs the full admission pipeline for one inbound message,
// short-circuiting on the first failure. Persistence happens-before
// broadcast: a subscriber can never observe a message that is not yet
// retrievable through the query side.
func (s *MessageService) Admit(ctx context.Context, payload validation.MessagePayload) (domain.Message, error) {
	// 1. Structural validation. The store is never touched on failure.
	validated, err := s.validator.Validate(payload)
	if err != nil {
		return domain.Message{}, err
	}

	// 2. Content policy. Matched terms go back to the caller so the
	// message can be reworded.
	if matched := s.filter.Classify(validated.Content); len(matched) > 0 {
		return domain.Message{}, errors.NewInappropriateContent(matched)
	}

	// 3. Resolve identifier and logical timestamp. A caller-supplied id is
	// a contract: it is used verbatim and never regenerated on conflict.
	now := s.now()
	messageID := validated.MessageID
	if messageID == "" {
		messageID = generateMessageID(now)
	}
	timestamp := now
	if validated.Timestamp != nil {
		timestamp = *validated.Timestamp
	}

	message := domain.Message{
		MessageID: messageID,
		SessionID: validated.SessionID,
		Content:   validated.Content,
		Timestamp: timestamp,
		Sender:    validated.Sender,
		// 4. Metadata is always server-computed; anything the caller sent
		// alongside the payload was discarded during validation.
		Metadata: domain.DeriveMetadata(validated.Content, now),
	}

	// 5. Persist. A duplicate id surfaces unchanged.
	if err := s.repository.Insert(message); err != nil {
		return domain.Message{}, err
	}

	// 6. Broadcast only after the message is durably retrievable.
	s.broadcaster.Publish(message)

	s.log.Debug("message admitted",
		"message_id", message.MessageID,
		"session_id", message.SessionID,
		"sender", message.Sender,
	)
	return message, nil
}

// generateMessageID builds ids like msg_20240131_120500_1a2b3c4d. The
// timestamp keeps them readable; the random suffix keeps concurrent
// admissions within one second from colliding.
func generateMessageID(now time.Time) string {
	return fmt.Sprintf("msg_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:8])
}
