// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat screen.
//
// The Model here is a Bubble Tea component: it owns the conversation,
// the input line, the scrollback viewport, and the status bar, and it
// drives the streaming lifecycle through typed messages. The model
// never talks to the network itself; when the user submits a prompt it
// emits a StreamRequestMsg and the program shell runs the request on a
// goroutine, feeding tokens back in with StreamTokenMsg,
// StreamCompleteMsg, and StreamErrorMsg.
//
// Incoming tokens are coalesced through a StreamingBuffer and drained
// on a fixed tick so a fast producer cannot force a render per token.
package chat
