// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the chat TUI.
//
// The palette is defined as lipgloss.AdaptiveColor pairs so every color
// resolves correctly on both light and dark terminals. Theme bundles the
// palette into ready-to-use lipgloss styles for each UI region (header,
// message bubbles, input area, status bar, error boxes, statistics).
//
// ACCESSIBILITY: status states pair high-contrast colors with ASCII shape
// indicators ([OK], [X], [!], [i]) so they remain distinguishable for
// colorblind users.
package styles
