package chat

import (
	"context"
	"fmt"

	chatRepo "lockbox/database/repository/chat"
	"lockbox/models"

	"go.uber.org/zap"
)

const DefaultBookingMessage = "New booking request"

type Messenger struct {
	Repo     chatRepo.ChatRepository
	Registry *Registry
	Relay    Relay
	Logger   *zap.Logger
}

func NewMessenger(repo chatRepo.ChatRepository, registry *Registry, relay Relay, logger *zap.Logger) *Messenger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Messenger{Repo: repo, Registry: registry, Relay: relay, Logger: logger}
}

// BookingMessage posts content from one party to the other in the booking's
// conversation and nudges the recipient if they are online.
func (m *Messenger) BookingMessage(ctx context.Context, from, to string, b *models.Booking, content string) (*models.Message, error) {
	if content == "" {
		content = DefaultBookingMessage
	}
	conv, err := m.Repo.TouchConversation(ctx, []string{from, to}, b.ID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to open booking conversation: %w", err)
	}

	msg := &models.Message{
		ConversationID: conv.ID,
		Sender:         from,
		Content:        content,
		ContentType:    "text",
		BookingID:      b.ID,
		BookingStatus:  string(b.Status),
	}
	if err := m.Repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store booking message: %w", err)
	}

	m.nudge(ctx, to, Event{Type: "new_message", ConversationID: conv.ID, Message: msg})
	return msg, nil
}

func (m *Messenger) nudge(ctx context.Context, userID string, ev Event) {
	if m.Registry != nil && m.Registry.Deliver(userID, ev) {
		return
	}
	if m.Relay == nil {
		return
	}
	if err := m.Relay.Publish(ctx, userID, ev); err != nil {
		m.Logger.Warn("failed to relay chat event", zap.String("user_id", userID), zap.Error(err))
	}
}
