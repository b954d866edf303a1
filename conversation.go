package genpipe

import (
	"sync"
)

// Conversation is an in-memory ordered transcript. It assigns ordinals on
// append and hands out copies, so callers can never reorder its history.
type Conversation struct {
	mu      sync.Mutex
	history []ConversationTurn
	next    int
}

// NewConversation creates a conversation seeded with turns. Ordinals are
// reassigned in input order.
func NewConversation(turns ...ConversationTurn) *Conversation {
	c := &Conversation{}
	for _, t := range turns {
		c.Append(t.Role, t.Content)
	}
	return c
}

// Append adds a turn and returns it with its ordinal.
func (c *Conversation) Append(role Role, content string) ConversationTurn {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++
	turn := ConversationTurn{Role: role, Content: content, Ordinal: c.next}
	c.history = append(c.history, turn)
	return turn
}

// Turns returns a copy of the history in ordinal order.
func (c *Conversation) Turns() []ConversationTurn {
	c.mu.Lock()
	defer c.mu.Unlock()

	historyCopy := make([]ConversationTurn, len(c.history))
	copy(historyCopy, c.history)
	return historyCopy
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

// Clear resets the conversation history.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = nil
	c.next = 0
}
