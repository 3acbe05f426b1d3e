// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/console-tui/internal/ui/components"
	"github.com/jeranaias/console-tui/internal/util"
)

// submitInput validates and dispatches the current input line.
//
// SECURITY: input is normalized (trim + NFC) before it enters the
// conversation, so the payload a user sees is the payload that ships.
func (m Model) submitInput() (Model, tea.Cmd) {
	if m.state.busy() {
		m.toasts.AddStatus("Still responding - press esc to cancel first")
		return m, components.ToastTickCmd()
	}

	content := util.NormalizeInput(m.input.Value())
	if content == "" {
		// Enter on an empty line dismisses a lingering error,
		// otherwise it is a no-op.
		return m.dismissError(), nil
	}

	m = m.dismissError()
	m.conversation.AddUserMessage(content)
	m.input.Reset()
	return m.startRequest()
}
