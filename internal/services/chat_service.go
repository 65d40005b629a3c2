package services

import (
	"context"
	"fmt"
	"time"

	"viewora-deals/internal/domain"
	"viewora-deals/pkg/logger"
)

// ChatService persists chat traffic and keeps the REST helpers consistent
// with the realtime channel: the mark-read endpoint triggers the same
// read-receipt broadcast a read frame does.
type ChatService struct {
	interests domain.InterestRepository
	messages  domain.ChatMessageRepository
	hub       domain.RoomHub
	log       logger.Logger
}

func NewChatService(
	interests domain.InterestRepository,
	messages domain.ChatMessageRepository,
	hub domain.RoomHub,
	log logger.Logger,
) *ChatService {
	return &ChatService{
		interests: interests,
		messages:  messages,
		hub:       hub,
		log:       log,
	}
}

// Authorize resolves the interest and checks the user is a party to it:
// the client or the currently assigned broker, nobody else.
func (s *ChatService) Authorize(ctx context.Context, interestID, userID string) (*domain.Interest, error) {
	interest, err := s.interests.Get(ctx, interestID)
	if err != nil {
		return nil, err
	}

	if userID != interest.ClientID && (interest.BrokerID == "" || userID != interest.BrokerID) {
		return nil, domain.ErrForbidden
	}

	return interest, nil
}

func (s *ChatService) History(ctx context.Context, interestID, userID string) ([]*domain.ChatMessage, error) {
	if _, err := s.Authorize(ctx, interestID, userID); err != nil {
		return nil, err
	}

	return s.messages.History(ctx, interestID)
}

// PostMessage persists a message from an already-authorized session and
// returns the canonical copy with server id and timestamp.
func (s *ChatService) PostMessage(ctx context.Context, interestID, senderID, body string) (*domain.ChatMessage, error) {
	if body == "" {
		return nil, fmt.Errorf("empty message body: %w", domain.ErrConflict)
	}

	msg := &domain.ChatMessage{
		InterestID: interestID,
		SenderID:   senderID,
		Message:    body,
		CreatedAt:  time.Now(),
	}

	if err := s.messages.Save(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// MarkMessagesRead flips is_read on messages the reader did not author.
// Already-read ids are skipped, so repeating a call changes nothing.
func (s *ChatService) MarkMessagesRead(ctx context.Context, interestID string, messageIDs []string, readerID string) ([]string, error) {
	return s.messages.MarkRead(ctx, interestID, messageIDs, readerID)
}

// MarkInterestRead is the REST path: mark everything unread, then broadcast
// the same read receipt the realtime path produces.
func (s *ChatService) MarkInterestRead(ctx context.Context, interestID, userID, username string) error {
	if _, err := s.Authorize(ctx, interestID, userID); err != nil {
		return err
	}

	flipped, err := s.messages.MarkAllRead(ctx, interestID, userID)
	if err != nil {
		return err
	}

	if len(flipped) > 0 {
		s.hub.Publish(interestID, domain.ReadReceiptEvent{
			Type:       domain.EventReadReceipt,
			MessageIDs: flipped,
			Reader:     username,
		}, "")
	}

	return nil
}
