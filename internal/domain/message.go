// Package domain contains core domain types for the consolebot application.
package domain

import (
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleUser marks a message typed by the person chatting.
	RoleUser Role = "user"
	// RoleAssistant marks a model reply or a client-rendered error.
	RoleAssistant Role = "assistant"
	// RoleSystem marks an instruction message. The relay owns the only one sent upstream.
	RoleSystem Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	default:
		return false
	}
}

// Message is a single entry in a conversation. Messages are never mutated after creation.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

// Turn returns the role/content projection sent over the wire.
func (m Message) Turn() Turn {
	return Turn{Role: m.Role, Content: m.Content}
}

// Turn is one transcript entry as exchanged with the relay and the upstream provider.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
