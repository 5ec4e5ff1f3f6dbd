package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"lockbox/models"

	"github.com/google/uuid"
)

type ChatRepo struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	messages      []models.Message
}

func NewChatRepo() *ChatRepo {
	return &ChatRepo{conversations: make(map[string]*models.Conversation)}
}

func conversationKey(participants []string, bookingID string) string {
	sorted := append([]string(nil), participants...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",") + "|" + bookingID
}

func (r *ChatRepo) TouchConversation(_ context.Context, participants []string, bookingID, lastMessage string) (*models.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	key := conversationKey(participants, bookingID)
	conv, ok := r.conversations[key]
	if !ok {
		conv = &models.Conversation{
			ID:           uuid.New().String(),
			Participants: append([]string(nil), participants...),
			BookingID:    bookingID,
			CreatedAt:    now,
		}
		r.conversations[key] = conv
	}
	conv.LastMessage = lastMessage
	conv.UpdatedAt = now
	out := *conv
	return &out, nil
}

func (r *ChatRepo) CreateMessage(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *ChatRepo) Messages() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Message(nil), r.messages...)
}
