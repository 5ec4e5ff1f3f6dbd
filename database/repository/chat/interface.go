package chatRepo

import (
	"context"

	"lockbox/models"
)

type ChatRepository interface {
	// TouchConversation finds the conversation between the participants for a
	// booking, creating it when missing, and records the last message.
	TouchConversation(ctx context.Context, participants []string, bookingID, lastMessage string) (*models.Conversation, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
}
