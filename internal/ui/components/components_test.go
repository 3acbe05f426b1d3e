// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/console-tui/internal/model"
	"github.com/jeranaias/console-tui/internal/ui/styles"
)

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "Ready"},
		{StatusThinking, "Thinking..."},
		{StatusStreaming, "Streaming..."},
		{StatusError, "Error"},
		{Status(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusAcceptsInput(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusReady, true},
		{StatusError, true},
		{StatusThinking, false},
		{StatusStreaming, false},
	}

	for _, tt := range tests {
		if got := tt.status.AcceptsInput(); got != tt.want {
			t.Errorf("Status %v AcceptsInput() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestStatusIcon(t *testing.T) {
	if StatusError.Icon() != styles.StatusIndicators.Error {
		t.Errorf("error icon = %q", StatusError.Icon())
	}
	if StatusReady.Icon() != styles.StatusIndicators.Success {
		t.Errorf("ready icon = %q", StatusReady.Icon())
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusBarNarrowShowsStatusOnly(t *testing.T) {
	bar := NewStatusBar("gpt-4o-mini")
	bar.SetWidth(40)

	view := bar.View()
	if !strings.Contains(view, "Ready") {
		t.Errorf("narrow view missing status: %q", view)
	}
	if strings.Contains(view, "gpt-4o-mini") {
		t.Errorf("narrow view should not show model: %q", view)
	}
}

func TestStatusBarMediumShowsModel(t *testing.T) {
	bar := NewStatusBar("gpt-4o-mini")
	bar.SetWidth(80)

	view := bar.View()
	if !strings.Contains(view, "Ready") || !strings.Contains(view, "gpt-4o-mini") {
		t.Errorf("medium view = %q", view)
	}
}

func TestStatusBarWideShowsTokensAndShortcuts(t *testing.T) {
	bar := NewStatusBar("gpt-4o-mini")
	bar.SetWidth(140)
	bar.SetStatus(StatusStreaming)
	bar.SetTokenUsage(1234, 0)

	view := bar.View()
	if !strings.Contains(view, "Streaming...") {
		t.Errorf("wide view missing status: %q", view)
	}
	if !strings.Contains(view, "1,234 tokens") {
		t.Errorf("wide view missing token count: %q", view)
	}
	if !strings.Contains(view, "ctrl+c") {
		t.Errorf("wide view missing shortcuts: %q", view)
	}
}

func TestStatusBarError(t *testing.T) {
	bar := NewStatusBar("gpt-4o-mini")
	bar.SetWidth(80)
	bar.SetError("connection refused")

	view := bar.View()
	if !strings.Contains(view, "Error: connection refused") {
		t.Errorf("error view = %q", view)
	}

	// Returning to Ready clears the error text.
	bar.SetStatus(StatusReady)
	if strings.Contains(bar.View(), "connection refused") {
		t.Error("error text survived status reset")
	}
}

func TestStatusBarUsageBar(t *testing.T) {
	bar := NewStatusBar("m")
	bar.SetWidth(140)
	bar.SetTokenUsage(500, 1000)

	view := bar.View()
	if !strings.Contains(view, "[#####-----]") {
		t.Errorf("usage bar missing or wrong: %q", view)
	}
}

// =============================================================================
// SPINNER TESTS
// =============================================================================

func TestSpinnerLifecycle(t *testing.T) {
	s := NewSpinner()
	require.False(t, s.IsActive())
	require.Equal(t, "", s.View())

	cmd := s.Start()
	require.NotNil(t, cmd)
	require.True(t, s.IsActive())
	require.NotEqual(t, "", s.View())

	s.Stop()
	require.False(t, s.IsActive())
	require.Equal(t, "", s.View())
}

func TestThinkingIndicatorMessage(t *testing.T) {
	ti := NewThinkingIndicator()
	ti.Start()
	if !strings.Contains(ti.View(), "Thinking") {
		t.Errorf("view = %q", ti.View())
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{59 * time.Second, "59s"},
		{60 * time.Second, "1m 0s"},
		{125 * time.Second, "2m 5s"},
	}

	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestToStr(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{42, "42"},
		{-3, "-3"},
		{1000, "1000"},
	}

	for _, tt := range tests {
		if got := toStr(tt.n); got != tt.want {
			t.Errorf("toStr(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFmtNumber(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1000, "-1,000"},
	}

	for _, tt := range tests {
		if got := fmtNumber(tt.n); got != tt.want {
			t.Errorf("fmtNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

// =============================================================================
// TOAST TESTS
// =============================================================================

func TestToastManagerAddAndRemove(t *testing.T) {
	m := NewToastManager()
	require.False(t, m.HasToasts())

	id := m.AddError("request failed")
	require.True(t, m.HasToasts())

	m.RemoveToast(id)
	require.False(t, m.HasToasts())
}

func TestToastManagerTrimsToMax(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < 10; i++ {
		m.AddStatus("toast")
	}

	require.Len(t, m.GetToasts(), 5)
}

func TestToastManagerNewestFirst(t *testing.T) {
	m := NewToastManager()
	m.AddStatus("first")
	m.AddStatus("second")

	toasts := m.GetToasts()
	require.Equal(t, "second", toasts[0].Message)
	require.Equal(t, "first", toasts[1].Message)
}

func TestToastExpiry(t *testing.T) {
	m := NewToastManager()
	toast := NewErrorToast("stale")
	toast.CreatedAt = time.Now().Add(-time.Minute)
	m.AddToast(toast)
	m.AddStatus("fresh")

	remaining := m.TickToasts()
	require.Len(t, remaining, 1)
	require.Equal(t, "fresh", remaining[0].Message)
}

func TestRenderToastShowsRetryHint(t *testing.T) {
	toast := NewRetryableErrorToast("rate limited")
	view := RenderToast(toast, 120)

	if !strings.Contains(view, "rate limited") {
		t.Errorf("toast missing message: %q", view)
	}
	if !strings.Contains(view, "Retry") {
		t.Errorf("toast missing retry hint: %q", view)
	}
}

func TestWrapToastText(t *testing.T) {
	wrapped := wrapToastText("one two three four five", 9)
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 9 {
			t.Errorf("line too long: %q", line)
		}
	}
}

// =============================================================================
// MESSAGE BUBBLE TESTS
// =============================================================================

func newTestTheme() *styles.Theme {
	return styles.NewTheme()
}

func TestMessageBubbleUserContent(t *testing.T) {
	msg := model.NewUserMessage("hello there")
	bubble := NewMessageBubble(msg, newTestTheme())
	bubble.SetWidth(80)

	view := bubble.View()
	if !strings.Contains(view, "hello") {
		t.Errorf("user bubble missing content: %q", view)
	}
	if !strings.Contains(view, "you") {
		t.Errorf("user bubble missing role label: %q", view)
	}
}

func TestMessageBubbleStreamingAssistant(t *testing.T) {
	msg := model.NewAssistantMessage()
	msg.AppendToken("partial")

	bubble := NewMessageBubble(msg, newTestTheme())
	bubble.SetWidth(80)

	view := bubble.View()
	if !strings.Contains(view, "partial") {
		t.Errorf("streaming bubble missing content: %q", view)
	}
	if !strings.Contains(view, "assistant") {
		t.Errorf("streaming bubble missing role label: %q", view)
	}
}

func TestMessageBubbleNotice(t *testing.T) {
	msg := model.NewNoticeMessage("Conversation reset")
	bubble := NewMessageBubble(msg, newTestTheme())
	bubble.SetWidth(80)

	view := bubble.View()
	if !strings.Contains(view, "Conversation") {
		t.Errorf("notice bubble missing content: %q", view)
	}
	if !strings.Contains(view, "notice") {
		t.Errorf("notice bubble missing label: %q", view)
	}
}

func TestMessageBubbleNilMessage(t *testing.T) {
	bubble := NewMessageBubble(nil, newTestTheme())
	bubble.SetWidth(80)

	// Must not panic.
	_ = bubble.View()
}

func TestMessageListEmptyState(t *testing.T) {
	ml := NewMessageList(newTestTheme())
	ml.SetWidth(80)

	view := ml.View()
	if !strings.Contains(view, "No messages yet") {
		t.Errorf("empty state = %q", view)
	}
}

func TestMessageListRendersAll(t *testing.T) {
	ml := NewMessageList(newTestTheme())
	ml.SetWidth(100)
	ml.SetMessages([]*model.Message{
		model.NewUserMessage("question"),
		model.NewMessage(model.RoleAssistant, "answer"),
	})

	view := ml.View()
	if !strings.Contains(view, "question") || !strings.Contains(view, "answer") {
		t.Errorf("list view missing messages: %q", view)
	}
}

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestParseCodeBlocksPassesProseThrough(t *testing.T) {
	text := "before\nafter"
	got := ParseCodeBlocks(text, 80)
	if got != text {
		t.Errorf("prose changed: %q", got)
	}
}

func TestParseCodeBlocksRendersFence(t *testing.T) {
	text := "intro\n```go\npackage main\n```\noutro"
	got := ParseCodeBlocks(text, 80)

	if !strings.Contains(got, "intro") || !strings.Contains(got, "outro") {
		t.Errorf("prose lost: %q", got)
	}
	// The fence markers themselves must not survive rendering.
	if strings.Contains(got, "```") {
		t.Errorf("fence markers survived: %q", got)
	}
}

func TestParseCodeBlocksUnclosedFence(t *testing.T) {
	text := "```python\nprint('hi')"
	got := ParseCodeBlocks(text, 80)
	if strings.Contains(got, "```") {
		t.Errorf("unclosed fence not rendered: %q", got)
	}
}

// =============================================================================
// MARKDOWN TESTS
// =============================================================================

func TestRenderMarkdownFallsBackOnTinyWidth(t *testing.T) {
	got := RenderMarkdown("plain text", 5)
	require.NotEmpty(t, got)
}

func TestRenderMarkdownKeepsContent(t *testing.T) {
	got := RenderMarkdown("# Title\n\nbody text", 80)
	require.Contains(t, got, "Title")
	require.Contains(t, got, "body text")
}
