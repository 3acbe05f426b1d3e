// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines the conversation data structures shared across
// the UI and API layers.
//
// Core types:
//   - Message: single chat message with streaming accumulation support
//   - Conversation: ordered message history with pruning and API conversion
//   - Statistics: generation timing and token metrics
//
// Streaming messages accumulate tokens in a strings.Builder and are
// promoted to final content by FinalizeStream. Display-only notices
// (role system, Notice flag) never appear in API request payloads.
package model
