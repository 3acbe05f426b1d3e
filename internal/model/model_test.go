// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	msg := NewMessage(RoleUser, "hello")

	if msg.ID == "" {
		t.Error("expected non-empty ID")
	}
	if msg.Role != RoleUser {
		t.Errorf("expected role user, got %s", msg.Role)
	}
	if msg.Content != "hello" {
		t.Errorf("expected content 'hello', got %q", msg.Content)
	}
	if msg.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestMessageIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		msg := NewUserMessage("x")
		if seen[msg.ID] {
			t.Fatalf("duplicate message ID: %s", msg.ID)
		}
		seen[msg.ID] = true
	}
}

func TestRoleDisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleAssistant, "Assistant"},
		{RoleSystem, "System"},
		{Role("other"), "other"},
	}

	for _, tt := range tests {
		if got := tt.role.DisplayName(); got != tt.want {
			t.Errorf("DisplayName(%s) = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestStreamingMessage(t *testing.T) {
	msg := NewAssistantMessage()

	if !msg.IsStreaming {
		t.Fatal("expected new assistant message to be streaming")
	}

	msg.AppendToken("Hello")
	msg.AppendToken(", ")
	msg.AppendToken("world!")

	if got := msg.GetDisplayContent(); got != "Hello, world!" {
		t.Errorf("expected 'Hello, world!', got %q", got)
	}
	if msg.Content != "" {
		t.Error("Content should be empty while streaming")
	}

	msg.FinalizeStream(nil)

	if msg.IsStreaming {
		t.Error("expected message to not be streaming after finalize")
	}
	if msg.Content != "Hello, world!" {
		t.Errorf("expected finalized content, got %q", msg.Content)
	}
}

func TestFinalizeStreamWithStats(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("answer")

	stats := NewStatistics()
	stats.RecordFirstToken()
	stats.Finalize(10, 5)

	msg.FinalizeStream(stats)

	if msg.TokenCount != 5 {
		t.Errorf("expected 5 tokens, got %d", msg.TokenCount)
	}
	if msg.TTFT != stats.TTFT {
		t.Error("expected TTFT to be copied from stats")
	}
}

func TestAppendTokenAfterFinalize(t *testing.T) {
	msg := NewAssistantMessage()
	msg.AppendToken("done")
	msg.FinalizeStream(nil)

	msg.AppendToken(" more")

	if msg.Content != "done" {
		t.Errorf("append after finalize should be ignored, got %q", msg.Content)
	}
}

func TestMessagePreview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		want    string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"unicode", "héllo wörld", 8, "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewUserMessage(tt.content)
			if got := msg.Preview(tt.maxLen); got != tt.want {
				t.Errorf("Preview(%d) = %q, want %q", tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	msg := NewUserMessage(strings.Repeat("a", 40))
	if got := msg.EstimateTokens(); got != 10 {
		t.Errorf("expected ~10 tokens for 40 chars, got %d", got)
	}
}

func TestNoticeMessage(t *testing.T) {
	msg := NewNoticeMessage("Conversation reset.")

	if msg.Role != RoleSystem {
		t.Errorf("expected system role, got %s", msg.Role)
	}
	if !msg.Notice {
		t.Error("expected Notice flag set")
	}
}

// =============================================================================
// STATISTICS TESTS
// =============================================================================

func TestStatisticsFinalize(t *testing.T) {
	stats := NewStatistics()
	stats.StartTime = time.Now().Add(-2 * time.Second)

	stats.RecordFirstToken()
	stats.Finalize(100, 50)

	if stats.PromptTokens != 100 {
		t.Errorf("expected 100 prompt tokens, got %d", stats.PromptTokens)
	}
	if stats.CompletionTokens != 50 {
		t.Errorf("expected 50 completion tokens, got %d", stats.CompletionTokens)
	}
	if stats.TotalDuration < 2*time.Second {
		t.Errorf("expected duration >= 2s, got %v", stats.TotalDuration)
	}
	if stats.TokensPerSecond <= 0 {
		t.Error("expected positive tokens per second")
	}
}

func TestRecordFirstTokenIdempotent(t *testing.T) {
	stats := NewStatistics()
	stats.RecordFirstToken()
	first := stats.FirstTokenTime

	time.Sleep(time.Millisecond)
	stats.RecordFirstToken()

	if stats.FirstTokenTime != first {
		t.Error("RecordFirstToken should only record the first call")
	}
}

// =============================================================================
// FORMATTER TESTS
// =============================================================================

func TestFormatInt(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{5, "5"},
		{42, "42"},
		{1234567, "1234567"},
		{-1, "-1"},
		{-9999, "-9999"},
	}

	for _, tt := range tests {
		if got := formatInt(tt.n); got != tt.want {
			t.Errorf("formatInt(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatFloat64(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{0.0, "0.0"},
		{1.5, "1.5"},
		{42.19, "42.1"},
		{100.0, "100.0"},
	}

	for _, tt := range tests {
		if got := formatFloat64(tt.f); got != tt.want {
			t.Errorf("formatFloat64(%v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0.5, "500ms"},
		{2.5, "2.5s"},
		{0.234, "234ms"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversation(t *testing.T) {
	conv := NewConversation("gpt-4o-mini")

	if conv.ID == "" {
		t.Error("expected non-empty conversation ID")
	}
	if conv.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %s", conv.Model)
	}
	if !conv.IsEmpty() {
		t.Error("expected new conversation to be empty")
	}
}

func TestConversationAddMessages(t *testing.T) {
	conv := NewConversation("gpt-4o-mini")

	conv.AddUserMessage("first question")
	asst := conv.AddAssistantMessage()
	asst.AppendToken("answer")
	conv.FinalizeLast(nil)

	if conv.MessageCount() != 2 {
		t.Fatalf("expected 2 messages, got %d", conv.MessageCount())
	}
	if conv.Title != "first question" {
		t.Errorf("expected title from first user message, got %q", conv.Title)
	}
}

func TestConversationAppendToLast(t *testing.T) {
	conv := NewConversation("gpt-4o-mini")
	conv.AddUserMessage("q")
	conv.AddAssistantMessage()

	conv.AppendToLast("a")
	conv.AppendToLast("b")

	last := conv.GetLastMessage()
	if got := last.GetDisplayContent(); got != "ab" {
		t.Errorf("expected 'ab', got %q", got)
	}
}

func TestConversationAppendToLastNonStreaming(t *testing.T) {
	conv := NewConversation("gpt-4o-mini")
	conv.AddUserMessage("q")

	// Last message is a finalized user message; append is a no-op.
	conv.AppendToLast("token")

	if conv.GetLastMessage().Content != "q" {
		t.Error("append to non-streaming message should be ignored")
	}
}

func TestConversationFinalizeTokenAccounting(t *testing.T) {
	conv := NewConversation("gpt-4o-mini")
	conv.AddUserMessage("q")
	conv.AddAssistantMessage()
	conv.AppendToLast("answer")

	stats := NewStatistics()
	stats.Finalize(20, 10)
	conv.FinalizeLast(stats)

	if conv.TokensUsed != 30 {
		t.Errorf("expected 30 tokens used, got %d", conv.TokensUsed)
	}
}

func TestConversationGetLastUserMessage(t *testing.T) {
	conv := NewConversation("gpt-4o-mini")

	if conv.GetLastUserMessage() != nil {
		t.Error("expected nil for empty conversation")
	}

	conv.AddUserMessage("first")
	conv.AddAssistantMessage()
	conv.FinalizeLast(nil)
	conv.AddUserMessage("second")

	if got := conv.GetLastUserMessage().Content; got != "second" {
		t.Errorf("expected 'second', got %q", got)
	}
}

func TestConversationRemoveMessage(t *testing.T) {
	conv := NewConversation("gpt-4o-mini")
	msg := conv.AddUserMessage("oops")

	if !conv.RemoveMessage(msg.ID) {
		t.Error("expected RemoveMessage to return true")
	}
	if !conv.IsEmpty() {
		t.Error("expected empty conversation after removal")
	}
	if conv.RemoveMessage("msg_nonexistent") {
		t.Error("expected RemoveMessage to return false for unknown ID")
	}
}

func TestConversationReset(t *testing.T) {
	conv := NewConversation("gpt-4o-mini")
	conv.AddUserMessage("hello")
	conv.TokensUsed = 42

	conv.Reset()

	if !conv.IsEmpty() {
		t.Error("expected empty conversation after reset")
	}
	if conv.TokensUsed != 0 {
		t.Error("expected token count reset")
	}
	if conv.Title != "New Conversation" {
		t.Errorf("expected title reset, got %q", conv.Title)
	}
}

func TestConversationPrune(t *testing.T) {
	conv := NewConversation("gpt-4o-mini")
	conv.MaxMessages = 5

	for i := 0; i < 10; i++ {
		conv.AddUserMessage("message")
	}

	if conv.MessageCount() != 5 {
		t.Errorf("expected 5 messages after pruning, got %d", conv.MessageCount())
	}
}

// =============================================================================
// API CONVERSION TESTS
// =============================================================================

func TestToAPIMessages(t *testing.T) {
	conv := NewConversation("gpt-4o-mini")
	conv.SystemPrompt = "You are a helpful assistant."

	conv.AddUserMessage("hi")
	conv.AddAssistantMessage()
	conv.AppendToLast("hello!")
	conv.FinalizeLast(nil)
	conv.AddNotice("Conversation reset.")
	conv.AddUserMessage("how are you?")

	msgs := conv.ToAPIMessages()

	if len(msgs) != 4 {
		t.Fatalf("expected 4 API messages, got %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != "You are a helpful assistant." {
		t.Errorf("expected system prompt first, got %+v", msgs[0])
	}
	if msgs[1].Role != "user" || msgs[1].Content != "hi" {
		t.Errorf("unexpected second message: %+v", msgs[1])
	}
	if msgs[2].Role != "assistant" || msgs[2].Content != "hello!" {
		t.Errorf("unexpected third message: %+v", msgs[2])
	}
	if msgs[3].Role != "user" || msgs[3].Content != "how are you?" {
		t.Errorf("unexpected fourth message: %+v", msgs[3])
	}
}

func TestToAPIMessagesNoSystemPrompt(t *testing.T) {
	conv := NewConversation("gpt-4o-mini")
	conv.AddUserMessage("hi")

	msgs := conv.ToAPIMessages()

	if len(msgs) != 1 {
		t.Fatalf("expected 1 API message, got %d", len(msgs))
	}
	if msgs[0].Role != "user" {
		t.Errorf("expected user role, got %s", msgs[0].Role)
	}
}

func TestToAPIMessagesExcludesStreaming(t *testing.T) {
	conv := NewConversation("gpt-4o-mini")
	conv.AddUserMessage("hi")
	conv.AddAssistantMessage() // still streaming

	msgs := conv.ToAPIMessages()

	if len(msgs) != 1 {
		t.Fatalf("expected streaming message excluded, got %d messages", len(msgs))
	}
}
