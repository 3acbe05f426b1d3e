// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/console-tui/internal/ui/components"
	"github.com/jeranaias/console-tui/internal/ui/styles"
)

// =============================================================================
// LAYOUT
// =============================================================================

const (
	// headerHeight is the title line plus its divider.
	headerHeight = 2
	// inputHeight is the input line plus its top/bottom rules.
	inputHeight = 3
	// statusBarHeight is the single status line.
	statusBarHeight = 1

	// inputChromeWidth is the prompt, padding, and rule overhead
	// around the text input.
	inputChromeWidth = 8
)

// chromeHeight is everything on screen that is not the viewport.
func chromeHeight() int {
	return headerHeight + inputHeight + statusBarHeight
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	input := m.renderInput()
	status := m.statusBar.View()

	var thinking string
	if m.state == StateThinking {
		thinking = m.renderThinking()
	}
	var toasts string
	if m.toasts.HasToasts() {
		toasts = components.RenderToastStack(m.toasts.GetToasts(), m.width, 1)
	}

	// The viewport absorbs whatever height the fixed chrome leaves.
	// Measure the rendered chrome rather than trusting the constants;
	// wrapped toasts and narrow terminals change line counts.
	used := lipgloss.Height(header) + lipgloss.Height(input) + lipgloss.Height(status)
	if thinking != "" {
		used += lipgloss.Height(thinking)
	}
	if toasts != "" {
		used += lipgloss.Height(toasts)
	}
	want := m.height - used
	if want < 1 {
		want = 1
	}
	if m.viewport.Height != want {
		m.viewport.Height = want
	}

	sections := make([]string, 0, 6)
	sections = append(sections, header, m.viewport.View())
	if thinking != "" {
		sections = append(sections, thinking)
	}
	if toasts != "" {
		sections = append(sections, toasts)
	}
	sections = append(sections, input, status)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// SECTIONS
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("console")
	sub := m.theme.HeaderSubtitle.Render(m.conversation.Model)
	line := title + "  " + sub

	width := m.width
	if width < 1 {
		width = 1
	}
	divider := lipgloss.NewStyle().
		Foreground(styles.Overlay).
		Render(strings.Repeat("─", width))

	return line + "\n" + divider
}

func (m Model) renderThinking() string {
	return lipgloss.NewStyle().PaddingLeft(2).Render(m.thinking.View())
}

func (m Model) renderInput() string {
	field := m.input.View()

	// Character count appears once the prompt gets close to the limit.
	used := len([]rune(m.input.Value()))
	if used >= inputCharLimit*3/4 {
		countStyle := m.theme.CharCount
		if used >= inputCharLimit*9/10 {
			countStyle = m.theme.CharCountWarning
		}
		count := countStyle.Render(strconv.Itoa(used) + "/" + strconv.Itoa(inputCharLimit))
		gap := m.width - lipgloss.Width(field) - lipgloss.Width(count) - 4
		if gap > 0 {
			field += strings.Repeat(" ", gap) + count
		}
	}

	return m.theme.InputContainer.Width(m.width - 2).Render(field)
}

// renderEmptyState fills the viewport before the first message.
func (m Model) renderEmptyState() string {
	muted := lipgloss.NewStyle().Foreground(styles.TextMuted)
	accent := lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)

	lines := []string{
		"",
		accent.Render("Start a conversation"),
		"",
		muted.Render("Type a message and press enter to send it."),
		muted.Render("The reply streams in as it is generated."),
		"",
		muted.Render("enter send   esc cancel   ctrl+l clear   ctrl+n new   ctrl+c quit"),
	}
	block := strings.Join(lines, "\n")

	width := m.viewport.Width
	height := m.viewport.Height
	if width < 1 || height < 1 {
		return block
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, block)
}

// updateViewport rebuilds the scrollback content.
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	visible := m.visibleMessages()
	if len(visible) == 0 {
		m.viewport.SetContent(m.renderEmptyState())
		return
	}

	list := components.NewMessageList(m.theme)
	list.SetMessages(visible)
	list.SetWidth(m.viewport.Width)
	list.ShowStats = m.showStats
	list.Markdown = m.markdown
	m.viewport.SetContent(list.View())
}
