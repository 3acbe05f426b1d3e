// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/console-tui/internal/openai"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation represents a chat session with message history.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages in chronological order.
	Messages []*Message `json:"messages"`

	// Request context
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt,omitempty"`

	// Token tracking
	TokensUsed int `json:"tokens_used"`
	MaxTokens  int `json:"max_tokens,omitempty"`

	// MaxMessages bounds history growth; oldest messages are pruned.
	MaxMessages int `json:"-"`
}

// DefaultMaxMessages bounds unpruned conversation growth.
const DefaultMaxMessages = 1000

// NewConversation creates a new conversation.
func NewConversation(modelName string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:          generateConversationID(),
		Title:       "New Conversation",
		CreatedAt:   now,
		UpdatedAt:   now,
		Messages:    make([]*Message, 0, 16),
		Model:       modelName,
		MaxMessages: DefaultMaxMessages,
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage adds a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()

	// Update title from the first user message.
	if c.Title == "New Conversation" && msg.Role == RoleUser {
		c.Title = msg.Preview(50)
	}

	c.prune()
}

// AddUserMessage creates and appends a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and appends a streaming assistant message.
func (c *Conversation) AddAssistantMessage() *Message {
	msg := NewAssistantMessage()
	c.AddMessage(msg)
	return msg
}

// AddNotice creates and appends a display-only system notice.
func (c *Conversation) AddNotice(content string) *Message {
	msg := NewNoticeMessage(content)
	c.AddMessage(msg)
	return msg
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// GetLastUserMessage returns the most recent user message, or nil.
func (c *Conversation) GetLastUserMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i]
		}
	}
	return nil
}

// AppendToLast appends a token to the last message if it is streaming.
func (c *Conversation) AppendToLast(token string) {
	last := c.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.AppendToken(token)
		c.UpdatedAt = time.Now()
	}
}

// FinalizeLast completes streaming on the last message.
func (c *Conversation) FinalizeLast(stats *Statistics) {
	last := c.GetLastMessage()
	if last != nil && last.IsStreaming {
		last.FinalizeStream(stats)
		if stats != nil {
			c.TokensUsed += stats.PromptTokens + stats.CompletionTokens
		}
		c.UpdatedAt = time.Now()
	}
}

// RemoveMessage removes the message with the given ID.
// Returns true if a message was removed.
func (c *Conversation) RemoveMessage(id string) bool {
	for i, msg := range c.Messages {
		if msg.ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			c.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// Reset clears all messages and token counts.
func (c *Conversation) Reset() {
	c.Messages = c.Messages[:0]
	c.Title = "New Conversation"
	c.TokensUsed = 0
	c.UpdatedAt = time.Now()
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// prune drops the oldest messages when the conversation exceeds MaxMessages.
// PERFORMANCE: keeps memory bounded during very long sessions.
func (c *Conversation) prune() {
	if c.MaxMessages <= 0 || len(c.Messages) <= c.MaxMessages {
		return
	}
	excess := len(c.Messages) - c.MaxMessages
	c.Messages = append(c.Messages[:0], c.Messages[excess:]...)
}

// =============================================================================
// API CONVERSION
// =============================================================================

// ToAPIMessages converts the conversation to the wire format.
// The system prompt (if configured) leads; display-only notices and
// in-flight streaming messages are excluded.
func (c *Conversation) ToAPIMessages() []openai.Message {
	msgs := make([]openai.Message, 0, len(c.Messages)+1)

	if c.SystemPrompt != "" {
		msgs = append(msgs, openai.Message{
			Role:    RoleSystem.String(),
			Content: c.SystemPrompt,
		})
	}

	for _, msg := range c.Messages {
		if msg.Notice || msg.IsStreaming {
			continue
		}
		switch msg.Role {
		case RoleUser, RoleAssistant:
			msgs = append(msgs, openai.Message{
				Role:    msg.Role.String(),
				Content: msg.Content,
			})
		}
	}

	return msgs
}

// generateConversationID creates a unique conversation ID.
func generateConversationID() string {
	return "conv_" + time.Now().Format("20060102-150405")
}
