package domain

import (
	"time"
)

// Greeting is the seed assistant message every conversation starts from.
const Greeting = "Hey! I'm Waleed, your AI friend. How can I help you today?"

// GreetingID is the fixed id of the seed message.
const GreetingID = "greeting"

// SeedMessage returns the assistant greeting stamped with now.
func SeedMessage(now time.Time) Message {
	return Message{
		ID:        GreetingID,
		Content:   Greeting,
		Role:      RoleAssistant,
		Timestamp: now,
	}
}

// Conversation is an ordered, append-only list of messages.
// It is not safe for concurrent use; owners serialize access.
type Conversation struct {
	messages []Message
}

// NewConversation returns a conversation holding only the seed greeting.
func NewConversation(now time.Time) *Conversation {
	c := &Conversation{}
	c.Reset(now)
	return c
}

// Append adds m to the end of the conversation.
func (c *Conversation) Append(m Message) {
	c.messages = append(c.messages, m)
}

// Reset drops every message and restores the seed greeting.
func (c *Conversation) Reset(now time.Time) {
	c.messages = []Message{SeedMessage(now)}
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Messages returns a copy of the messages in insertion order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Find returns the message with the given id.
func (c *Conversation) Find(id string) (Message, bool) {
	for _, m := range c.messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// Last returns the most recent message, if any.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Transcript projects the conversation to role/content pairs in order.
func (c *Conversation) Transcript() []Turn {
	turns := make([]Turn, 0, len(c.messages))
	for _, m := range c.messages {
		turns = append(turns, m.Turn())
	}
	return turns
}
