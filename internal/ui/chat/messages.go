// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/console-tui/internal/config"
	"github.com/jeranaias/console-tui/internal/model"
	"github.com/jeranaias/console-tui/internal/openai"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================
// The chat model and the program shell communicate exclusively through
// these message types. Every message carries the ID of the assistant
// placeholder it belongs to so that tokens from a cancelled request can
// never land in a newer message.

// StreamRequestMsg asks the program shell to start a chat completion.
// Messages is the full API payload, system prompt included.
type StreamRequestMsg struct {
	MessageID string
	Model     string
	Messages  []openai.Message
}

// StreamStartMsg signals that the request is on the wire.
type StreamStartMsg struct {
	MessageID string
	StartTime time.Time
}

// NewStreamStartMsg creates a stream start message.
func NewStreamStartMsg(messageID string) StreamStartMsg {
	return StreamStartMsg{
		MessageID: messageID,
		StartTime: time.Now(),
	}
}

// StreamTokenMsg delivers one content delta from the stream.
type StreamTokenMsg struct {
	MessageID string
	Token     string
	// IsFirst marks the first delta, used for time-to-first-token.
	IsFirst bool
}

// StreamCompleteMsg signals that the stream finished normally.
type StreamCompleteMsg struct {
	MessageID string
	Stats     *model.Statistics
}

// StreamErrorMsg signals that the stream failed. The user's prompt
// stays in the conversation so it can be retried.
type StreamErrorMsg struct {
	MessageID string
	Error     error
}

// StreamTickMsg drives the buffered-token flush loop.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// CONTROL MESSAGES
// =============================================================================

// ConfigReloadedMsg is sent by the config file watcher when the config
// on disk changed and revalidated cleanly.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ErrorDismissMsg clears the blocking error state.
type ErrorDismissMsg struct{}
