// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the console TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/console-tui/internal/ui/styles"
)

// =============================================================================
// STATUS TYPES
// =============================================================================

// Status represents the current session state shown in the status bar.
type Status int

const (
	// StatusReady means the session is idle and accepting input.
	StatusReady Status = iota
	// StatusThinking means a request was sent but no token has arrived yet.
	StatusThinking
	// StatusStreaming means reply tokens are actively arriving.
	StatusStreaming
	// StatusError means the last request failed.
	StatusError
)

// String returns the human-readable status text.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusThinking:
		return "Thinking..."
	case StatusStreaming:
		return "Streaming..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns the ASCII indicator for the status.
// ACCESSIBILITY: Shape indicators convey state without relying on color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusThinking:
		return styles.StatusIndicators.Pending
	case StatusStreaming:
		return styles.StatusIndicators.Active
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return styles.StatusIndicators.Info
	}
}

// AcceptsInput reports whether the session may submit a new request.
func (s Status) AcceptsInput() bool {
	return s == StatusReady || s == StatusError
}

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar renders the bottom status line: session state, model name,
// running token usage, and keyboard shortcuts. The layout adapts to the
// terminal width.
type StatusBar struct {
	width int

	status     Status
	modelName  string
	tokensUsed int
	maxTokens  int

	errorText     string
	showShortcuts bool
}

// NewStatusBar creates a status bar in the Ready state.
func NewStatusBar(modelName string) StatusBar {
	return StatusBar{
		width:         80,
		status:        StatusReady,
		modelName:     modelName,
		showShortcuts: true,
	}
}

// SetWidth sets the available render width.
func (b *StatusBar) SetWidth(width int) {
	b.width = width
}

// SetStatus updates the session state.
func (b *StatusBar) SetStatus(status Status) {
	b.status = status
	if status != StatusError {
		b.errorText = ""
	}
}

// GetStatus returns the current session state.
func (b *StatusBar) GetStatus() Status {
	return b.status
}

// SetModel updates the displayed model name.
func (b *StatusBar) SetModel(name string) {
	b.modelName = name
}

// SetTokenUsage updates the running token counter. maxTokens of zero
// hides the usage bar.
func (b *StatusBar) SetTokenUsage(used, max int) {
	b.tokensUsed = used
	b.maxTokens = max
}

// SetError puts the bar into the error state with a short description.
func (b *StatusBar) SetError(text string) {
	b.status = StatusError
	b.errorText = text
}

// SetShowShortcuts toggles the shortcut hints in the wide layout.
func (b *StatusBar) SetShowShortcuts(show bool) {
	b.showShortcuts = show
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the status bar, choosing a layout for the current width.
func (b StatusBar) View() string {
	if b.width < 60 {
		return b.viewNarrow()
	}
	if b.width < 100 {
		return b.viewMedium()
	}
	return b.viewWide()
}

// viewNarrow shows only the status indicator.
func (b StatusBar) viewNarrow() string {
	content := b.renderStatus()
	return b.barStyle().Render(content)
}

// viewMedium shows status and model name.
func (b StatusBar) viewMedium() string {
	parts := []string{b.renderStatus(), b.renderModel()}
	content := strings.Join(parts, b.separator())
	return b.barStyle().Render(content)
}

// viewWide shows status, model, token usage, and shortcut hints.
func (b StatusBar) viewWide() string {
	parts := []string{b.renderStatus(), b.renderModel()}

	if usage := b.renderTokenUsage(); usage != "" {
		parts = append(parts, usage)
	}

	left := strings.Join(parts, b.separator())

	right := ""
	if b.showShortcuts {
		right = b.renderShortcuts()
	}

	// Pad the middle so shortcuts sit at the right edge.
	gap := b.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	content := left + strings.Repeat(" ", gap) + right
	return b.barStyle().Render(content)
}

// renderStatus renders the status icon and text in the state's color.
func (b StatusBar) renderStatus() string {
	var color lipgloss.AdaptiveColor
	switch b.status {
	case StatusReady:
		color = styles.Emerald
	case StatusThinking:
		color = styles.Amber
	case StatusStreaming:
		color = styles.Cyan
	case StatusError:
		color = styles.Rose
	default:
		color = styles.TextMuted
	}

	text := b.status.String()
	if b.status == StatusError && b.errorText != "" {
		text = "Error: " + b.errorText
	}

	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Render(b.status.Icon() + " " + text)
}

// renderModel renders the model name badge.
func (b StatusBar) renderModel() string {
	name := b.modelName
	if name == "" {
		name = "unknown"
	}
	return lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(name)
}

// renderTokenUsage renders the running token count, with a usage bar
// when a budget is known.
func (b StatusBar) renderTokenUsage() string {
	if b.tokensUsed <= 0 {
		return ""
	}

	label := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(fmtNumber(b.tokensUsed) + " tokens")

	if b.maxTokens <= 0 {
		return label
	}

	return label + " " + b.renderUsageBar()
}

// renderUsageBar renders a 10-segment bar of token budget consumption.
func (b StatusBar) renderUsageBar() string {
	pct := float64(b.tokensUsed) / float64(b.maxTokens) * 100
	if pct > 100 {
		pct = 100
	}

	filled := int(pct / 10)
	bar := "[" + strings.Repeat("#", filled) + strings.Repeat("-", 10-filled) + "]"

	var color lipgloss.AdaptiveColor
	switch {
	case pct >= 90:
		color = styles.Rose
	case pct >= 75:
		color = styles.Amber
	case pct >= 50:
		color = styles.Emerald
	default:
		color = styles.Cyan
	}

	return lipgloss.NewStyle().Foreground(color).Render(bar)
}

// renderShortcuts renders the keyboard shortcut hints.
func (b StatusBar) renderShortcuts() string {
	keyStyle := lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"enter", "send"},
		{"ctrl+l", "clear"},
		{"ctrl+n", "new"},
		{"esc", "cancel"},
		{"ctrl+c", "quit"},
	}

	parts := make([]string, 0, len(shortcuts))
	for _, sc := range shortcuts {
		parts = append(parts, keyStyle.Render(sc.key)+descStyle.Render(" "+sc.desc))
	}

	return strings.Join(parts, descStyle.Render("  "))
}

// separator renders the dim divider between bar sections.
func (b StatusBar) separator() string {
	return lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")
}

// barStyle returns the full-width bar container style.
func (b StatusBar) barStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Width(b.width).
		Padding(0, 1)
}
