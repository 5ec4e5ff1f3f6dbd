package chat

import (
	"sync"

	"lockbox/models"

	"github.com/google/uuid"
)

type Event struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversationId"`
	Message        *models.Message `json:"message,omitempty"`
}

// Conn is one live client connection. Events is closed when the connection
// is replaced or unregistered.
type Conn struct {
	ID     string
	UserID string
	Events chan Event
}

// Registry maps each user to their current connection. A user has at most one;
// registering again replaces the previous connection.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Conn
	buffer int
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Conn), buffer: 16}
}

func (r *Registry) Register(userID string) *Conn {
	c := &Conn{ID: uuid.New().String(), UserID: userID, Events: make(chan Event, r.buffer)}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.conns[userID]; ok {
		close(old.Events)
	}
	r.conns[userID] = c
	return c
}

// Unregister removes c if it is still the user's current connection.
func (r *Registry) Unregister(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.conns[c.UserID]; ok && cur.ID == c.ID {
		delete(r.conns, c.UserID)
		close(c.Events)
	}
}

func (r *Registry) Connected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[userID]
	return ok
}

// Deliver hands ev to the user's connection without blocking. It reports
// false when the user is not connected here or their buffer is full.
func (r *Registry) Deliver(userID string, ev Event) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	if !ok {
		return false
	}
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
