// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management.
//
// Configuration lives at ~/.console/config.toml (TOML preferred, JSON
// accepted) and resolves in three layers: built-in defaults, the config
// file, then environment variable overrides (OPENAI_API_KEY,
// OPENAI_BASE_URL, CONSOLE_MODEL, CONSOLE_SYSTEM_PROMPT, CONSOLE_THEME,
// CONSOLE_NO_STREAM).
//
// The package exposes a thread-safe global singleton via Global(), with
// ReloadGlobal() for hot reload. Watcher wires fsnotify to ReloadGlobal
// so edits to the config file take effect without restarting.
//
// SECURITY: Config files are created and maintained with 0600 permissions
// because they may contain an API key.
package config
