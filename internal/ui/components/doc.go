// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the console TUI.
//
// Components are self-contained units that render a portion of the screen:
//
//   - StatusBar: bottom bar showing session state, model, and token usage
//   - Spinner / ThinkingIndicator: animated waiting indicators
//   - MessageBubble / MessageList: styled chat message rendering
//   - CodeBlock: syntax-highlighted code block rendering
//   - ErrorToast / ToastManager: non-blocking error notifications
//
// Components hold their own display state and expose setters; the chat
// model drives them from its Update loop and composes their View output.
package components
