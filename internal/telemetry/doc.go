// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records local API usage statistics.
//
// The Ledger stores one row per API request in a SQLite database
// (~/.console/usage.db by default): model, token counts, time to first
// token, and total duration. Conversation content is never written.
//
// The Recorder interface lets the UI layer record usage without caring
// whether a real ledger is open; NopRecorder serves disabled setups.
package telemetry
