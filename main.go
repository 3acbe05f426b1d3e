// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// console is a terminal chat client for OpenAI-compatible
// chat-completion APIs. Replies stream into a full-screen Bubble Tea
// UI; a rolling conversation provides context for every request.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/jeranaias/console-tui/internal/config"
	"github.com/jeranaias/console-tui/internal/model"
	"github.com/jeranaias/console-tui/internal/openai"
	"github.com/jeranaias/console-tui/internal/telemetry"
	"github.com/jeranaias/console-tui/internal/ui/chat"
	"github.com/jeranaias/console-tui/internal/ui/styles"
)

// =============================================================================
// PROGRAM REFERENCE
// =============================================================================
// Streaming runs on goroutines outside the Bubble Tea event loop.
// (*tea.Program).Send is the only thread-safe way back in, so the
// program handle is kept here for those goroutines to use.

var (
	programMu  sync.Mutex
	programRef *tea.Program
)

func setProgram(p *tea.Program) {
	programMu.Lock()
	programRef = p
	programMu.Unlock()
}

func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// =============================================================================
// ROOT MODEL
// =============================================================================

// app is the root tea.Model. It wraps the chat screen and owns the
// network side of the streaming lifecycle: the chat model emits
// StreamRequestMsg, app runs the request on a goroutine and feeds the
// resulting stream messages back through the program.
type app struct {
	chat   chat.Model
	client *openai.Client
	cfg    *config.Config
}

func newApp(cfg *config.Config, client *openai.Client, recorder telemetry.Recorder) app {
	return app{
		chat:   chat.New(cfg, styles.NewTheme(), recorder),
		client: client,
		cfg:    cfg,
	}
}

func (a app) Init() tea.Cmd {
	return a.chat.Init()
}

func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case chat.StreamRequestMsg:
		return a.startStream(msg)

	case chat.ConfigReloadedMsg:
		if msg.Config != nil {
			a.cfg = msg.Config
			a.client.SetModel(msg.Config.API.Model)
		}
	}

	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	return a, cmd
}

func (a app) View() string {
	return a.chat.View()
}

// startStream launches the API request for a submitted prompt.
//
// The request context's cancel function is handed to the chat model so
// esc can abort mid-stream. Everything the goroutine needs is captured
// by value here; it must never touch the model after this returns.
func (a app) startStream(req chat.StreamRequestMsg) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	a.chat.SetCancelFunc(cancel)

	// Flip the session state before the goroutine produces anything.
	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(chat.NewStreamStartMsg(req.MessageID))

	client := a.client
	streaming := a.cfg.API.Stream
	go func() {
		defer cancel()
		if streaming {
			runStream(ctx, client, req)
		} else {
			runComplete(ctx, client, req)
		}
	}()

	return a, cmd
}

// =============================================================================
// STREAM WORKERS
// =============================================================================

// runStream drives one streamed completion, forwarding deltas into
// the UI. Cancellation is silent: the UI already cleaned up when it
// cancelled the context.
func runStream(ctx context.Context, client *openai.Client, req chat.StreamRequestMsg) {
	stats := model.NewStatistics()
	first := true
	chars := 0
	gotUsage := false

	err := client.ChatStream(ctx, req.Model, req.Messages, func(chunk openai.StreamChunk) {
		if chunk.Error != nil {
			// Surfaced through ChatStream's return value.
			return
		}
		if chunk.Done {
			if chunk.PromptTokens > 0 || chunk.CompletionTokens > 0 {
				stats.Finalize(chunk.PromptTokens, chunk.CompletionTokens)
				gotUsage = true
			}
			return
		}
		if chunk.Content == "" {
			return
		}
		if first {
			stats.RecordFirstToken()
		}
		chars += len(chunk.Content)
		sendToProgram(chat.StreamTokenMsg{
			MessageID: req.MessageID,
			Token:     chunk.Content,
			IsFirst:   first,
		})
		first = false
	})

	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		sendToProgram(chat.StreamErrorMsg{MessageID: req.MessageID, Error: err})
		return
	}

	if !gotUsage {
		// No usage block from the server; estimate the completion
		// side so throughput still displays.
		stats.Finalize(0, chars/4)
	}
	sendToProgram(chat.StreamCompleteMsg{MessageID: req.MessageID, Stats: stats})
}

// runComplete is the non-streaming fallback (api.stream = false). The
// whole reply arrives as a single token.
func runComplete(ctx context.Context, client *openai.Client, req chat.StreamRequestMsg) {
	stats := model.NewStatistics()

	resp, err := client.Chat(ctx, req.Model, req.Messages)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		sendToProgram(chat.StreamErrorMsg{MessageID: req.MessageID, Error: err})
		return
	}

	stats.RecordFirstToken()
	sendToProgram(chat.StreamTokenMsg{
		MessageID: req.MessageID,
		Token:     resp.Content(),
		IsFirst:   true,
	})

	if resp.Usage != nil {
		stats.Finalize(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	} else {
		stats.Finalize(0, len(resp.Content())/4)
	}
	sendToProgram(chat.StreamCompleteMsg{MessageID: req.MessageID, Stats: stats})
}

// =============================================================================
// STARTUP
// =============================================================================

func buildClient(cfg *config.Config) *openai.Client {
	cc := openai.DefaultConfig()
	cc.APIKey = cfg.API.Key
	cc.BaseURL = cfg.API.BaseURL
	cc.Model = cfg.API.Model
	cc.Timeout = cfg.Timeout()
	cc.RequestsPerMinute = cfg.API.RequestsPerMinute
	return openai.NewClientWithConfig(cc)
}

// openUsageLedger opens the SQLite usage ledger, degrading to a no-op
// recorder when disabled or unavailable.
func openUsageLedger(cfg *config.Config) (telemetry.Recorder, func()) {
	if !cfg.Usage.Enabled {
		return telemetry.NopRecorder{}, func() {}
	}
	path, err := cfg.UsageDBPath()
	if err != nil {
		return telemetry.NopRecorder{}, func() {}
	}
	ledger, err := telemetry.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: usage ledger unavailable: %v\n", err)
		return telemetry.NopRecorder{}, func() {}
	}
	return ledger, func() { _ = ledger.Close() }
}

func main() {
	// .env is a convenience for local setups; absence is fine.
	_ = godotenv.Load()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "console requires an interactive terminal")
		os.Exit(1)
	}

	cfg := config.Global()

	// Fail before the alt-screen swallows stderr.
	if cfg.API.Key == "" {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY is not set.")
		fmt.Fprintln(os.Stderr, "Set it in the environment, a .env file, or ~/.console/config.toml.")
		os.Exit(1)
	}

	client := buildClient(cfg)

	recorder, closeLedger := openUsageLedger(cfg)
	defer closeLedger()

	p := tea.NewProgram(
		newApp(cfg, client, recorder),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	setProgram(p)

	// Hot reload: edits to the config file land as ConfigReloadedMsg.
	// A broken watcher is not fatal; reload just won't happen.
	watcher, err := config.NewWatcher(func(c *config.Config) {
		sendToProgram(chat.ConfigReloadedMsg{Config: c})
	})
	if err == nil {
		if err := watcher.Watch(); err == nil {
			defer func() { _ = watcher.Close() }()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "console:", err)
		os.Exit(1)
	}
}
