// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/console-tui/internal/config"
	"github.com/jeranaias/console-tui/internal/model"
	"github.com/jeranaias/console-tui/internal/openai"
	"github.com/jeranaias/console-tui/internal/telemetry"
	"github.com/jeranaias/console-tui/internal/ui/components"
	"github.com/jeranaias/console-tui/internal/ui/styles"
)

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the session lifecycle state. Exactly one request can be in
// flight at a time; incoming submits are rejected outside Ready/Error.
type State int

const (
	// StateReady accepts input.
	StateReady State = iota
	// StateThinking has a request on the wire, no tokens yet.
	StateThinking
	// StateStreaming is receiving tokens.
	StateStreaming
	// StateError shows a dismissible error. Input still works.
	StateError
)

// AcceptsInput reports whether a new prompt may be submitted.
func (s State) AcceptsInput() bool {
	return s == StateReady || s == StateError
}

// busy reports whether a request is in flight.
func (s State) busy() bool {
	return s == StateThinking || s == StateStreaming
}

// status maps the session state onto the status bar indicator.
func (s State) status() components.Status {
	switch s {
	case StateThinking:
		return components.StatusThinking
	case StateStreaming:
		return components.StatusStreaming
	case StateError:
		return components.StatusError
	default:
		return components.StatusReady
	}
}

// defaultContextBudget sizes the status bar usage gauge when the
// conversation has no explicit token limit.
const defaultContextBudget = 128000

// inputCharLimit bounds a single prompt.
const inputCharLimit = 4000

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the chat screen.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	width  int
	height int
	ready  bool

	state     State
	errorText string

	conversation *model.Conversation

	// displayFrom hides messages before this index. Clearing the
	// screen advances it; the hidden messages stay in the
	// conversation and still ship with every API request.
	displayFrom int

	// Streaming plumbing. streamingMsgID pins incoming tokens to the
	// placeholder they belong to.
	streamingMsgID string
	streamStats    *model.Statistics
	buffer         *StreamingBuffer
	cancelMgr      *cancelManager
	canRetry       bool

	viewport  viewport.Model
	input     textinput.Model
	thinking  components.ThinkingIndicator
	statusBar components.StatusBar
	toasts    *components.ToastManager

	recorder telemetry.Recorder

	markdown  bool
	showStats bool
}

// New creates a chat model from the given configuration.
func New(cfg *config.Config, theme *styles.Theme, recorder telemetry.Recorder) Model {
	conv := model.NewConversation(cfg.API.Model)
	conv.SystemPrompt = cfg.Chat.SystemPrompt
	if cfg.Chat.MaxHistory > 0 {
		conv.MaxMessages = cfg.Chat.MaxHistory
	}

	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = inputCharLimit
	input.Prompt = "> "
	input.Focus()

	sb := components.NewStatusBar(cfg.API.Model)
	sb.SetTokenUsage(0, defaultContextBudget)

	return Model{
		theme:        theme,
		keys:         DefaultKeyMap(),
		state:        StateReady,
		conversation: conv,
		buffer:       NewStreamingBuffer(),
		cancelMgr:    newCancelManager(),
		input:        input,
		thinking:     components.NewThinkingIndicator(),
		statusBar:    sb,
		toasts:       components.NewToastManager(),
		recorder:     recorder,
		markdown:     cfg.UI.Markdown,
		showStats:    cfg.UI.ShowStats,
	}
}

// Init starts the input cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetCancelFunc registers the cancel function for the in-flight
// request. Called by the program shell when it starts a stream.
func (m Model) SetCancelFunc(fn func()) {
	m.cancelMgr.set(fn)
}

// State returns the current session state.
func (m Model) State() State {
	return m.state
}

// Conversation exposes the conversation, primarily for the shell and
// for tests.
func (m Model) Conversation() *model.Conversation {
	return m.conversation
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a single message.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamStartMsg:
		return m.handleStreamStart(msg)
	case StreamTokenMsg:
		return m.handleStreamToken(msg)
	case StreamTickMsg:
		return m.handleStreamTick()
	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)
	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)
	case ErrorDismissMsg:
		return m.dismissError(), nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.thinking, cmd = m.thinking.Update(msg)
		return m, cmd

	case components.ToastTickMsg:
		m.toasts.TickToasts()
		if m.toasts.HasToasts() {
			return m, components.ToastTickCmd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	m.statusBar.SetWidth(msg.Width)
	m.statusBar.SetShowShortcuts(msg.Width >= 100)
	m.input.Width = msg.Width - inputChromeWidth

	vpHeight := msg.Height - chromeHeight()
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		// Quit always works, even mid-stream.
		m.cancelMgr.fire()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.state.busy() {
			return m.cancelStreaming()
		}
		if m.state == StateError {
			return m.dismissError(), nil
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submitInput()

	case key.Matches(msg, m.keys.ClearDisplay):
		return m.clearDisplay()

	case key.Matches(msg, m.keys.NewConversation):
		return m.resetConversation()

	case key.Matches(msg, m.keys.Retry):
		return m.retryLast()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	case key.Matches(msg, m.keys.HalfUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.HalfDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// STREAM LIFECYCLE
// =============================================================================

func (m Model) handleStreamStart(msg StreamStartMsg) (Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}
	m.state = StateThinking
	m.streamStats = model.NewStatistics()
	m.streamStats.StartTime = msg.StartTime
	m.buffer.Reset()
	m.statusBar.SetStatus(components.StatusThinking)
	return m, tea.Batch(m.thinking.Start(), streamTickCmd())
}

func (m Model) handleStreamToken(msg StreamTokenMsg) (Model, tea.Cmd) {
	// Tokens from a cancelled or superseded request are dropped.
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}
	if msg.IsFirst {
		if m.streamStats != nil {
			m.streamStats.RecordFirstToken()
		}
		m.thinking.Stop()
		m.state = StateStreaming
		m.statusBar.SetStatus(components.StatusStreaming)
	}
	m.buffer.Write(msg.Token)
	return m, nil
}

func (m Model) handleStreamTick() (Model, tea.Cmd) {
	if !m.state.busy() {
		// Stream over; let the tick loop die.
		return m, nil
	}
	if chunk := m.buffer.Flush(); chunk != "" {
		m.conversation.AppendToLast(chunk)
		m.updateViewport()
		m.viewport.GotoBottom()
	}
	return m, streamTickCmd()
}

func (m Model) handleStreamComplete(msg StreamCompleteMsg) (Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}
	if tail := m.buffer.ForceFlush(); tail != "" {
		m.conversation.AppendToLast(tail)
	}

	stats := msg.Stats
	if stats == nil {
		stats = m.streamStats
	}
	m.conversation.FinalizeLast(stats)
	m.recordUsage(stats, true)

	m.streamingMsgID = ""
	m.streamStats = nil
	m.canRetry = false
	m.cancelMgr.clear()
	m.thinking.Stop()
	m.state = StateReady
	m.statusBar.SetStatus(components.StatusReady)
	m.statusBar.SetTokenUsage(m.conversation.TokensUsed, m.contextBudget())

	m.input.Focus()
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, textinput.Blink
}

func (m Model) handleStreamError(msg StreamErrorMsg) (Model, tea.Cmd) {
	if msg.MessageID != m.streamingMsgID {
		return m, nil
	}
	m.buffer.Reset()

	// Drop an empty placeholder; keep any partial text. The user's
	// prompt always stays so ctrl+r can resend it.
	last := m.conversation.GetLastMessage()
	if last != nil && last.IsStreaming {
		if last.IsEmpty() {
			m.conversation.RemoveMessage(last.ID)
		} else {
			m.conversation.FinalizeLast(m.streamStats)
		}
	}
	m.recordUsage(m.streamStats, false)

	m.streamingMsgID = ""
	m.streamStats = nil
	m.canRetry = true
	m.cancelMgr.clear()
	m.thinking.Stop()

	m.state = StateError
	m.errorText = friendlyError(msg.Error)
	m.statusBar.SetStatus(components.StatusError)
	m.statusBar.SetError(m.errorText)
	m.toasts.AddToast(components.NewRetryableErrorToast(m.errorText))

	m.input.Focus()
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(textinput.Blink, components.ToastTickCmd())
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// cancelStreaming aborts the in-flight request. Partial text is kept
// and marked; an empty placeholder is removed outright.
func (m Model) cancelStreaming() (Model, tea.Cmd) {
	m.cancelMgr.fire()

	if tail := m.buffer.ForceFlush(); tail != "" {
		m.conversation.AppendToLast(tail)
	}
	last := m.conversation.GetLastMessage()
	if last != nil && last.IsStreaming {
		if last.IsEmpty() {
			m.conversation.RemoveMessage(last.ID)
		} else {
			m.conversation.AppendToLast(" [incomplete - cancelled]")
			m.conversation.FinalizeLast(m.streamStats)
		}
	}

	m.streamingMsgID = ""
	m.streamStats = nil
	m.canRetry = true
	m.thinking.Stop()
	m.state = StateReady
	m.statusBar.SetStatus(components.StatusReady)
	m.toasts.AddStatus("Response cancelled")

	m.input.Focus()
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(textinput.Blink, components.ToastTickCmd())
}

// clearDisplay hides the current scrollback without touching history.
// Subsequent requests still carry the full conversation.
func (m Model) clearDisplay() (Model, tea.Cmd) {
	if m.state.busy() {
		m.toasts.AddStatus("Finish or cancel the current response first")
		return m, components.ToastTickCmd()
	}
	m.displayFrom = m.conversation.MessageCount()
	m.updateViewport()
	m.viewport.GotoTop()
	m.toasts.AddStatus("Screen cleared - history retained")
	return m, components.ToastTickCmd()
}

// resetConversation discards history and starts over. Unlike clear,
// reset always works: an in-flight stream is cancelled first.
func (m Model) resetConversation() (Model, tea.Cmd) {
	if m.state.busy() {
		m.cancelMgr.fire()
		m.buffer.Reset()
		m.streamingMsgID = ""
		m.streamStats = nil
		m.thinking.Stop()
		m.state = StateReady
		m.statusBar.SetStatus(components.StatusReady)
	}
	m.conversation.Reset()
	m.conversation.AddNotice("New conversation started")
	m.displayFrom = 0
	m.canRetry = false
	m = m.dismissError()
	m.statusBar.SetTokenUsage(0, m.contextBudget())
	m.updateViewport()
	m.viewport.GotoTop()
	return m, nil
}

// retryLast resends the conversation as-is after a failure. The failed
// prompt is already in history, so no user message is added.
func (m Model) retryLast() (Model, tea.Cmd) {
	if m.state.busy() {
		m.toasts.AddStatus("A response is already in progress")
		return m, components.ToastTickCmd()
	}
	if !m.canRetry || m.conversation.GetLastUserMessage() == nil {
		m.toasts.AddStatus("Nothing to retry")
		return m, components.ToastTickCmd()
	}
	m = m.dismissError()
	return m.startRequest()
}

// dismissError returns to Ready from the error state.
func (m Model) dismissError() Model {
	if m.state != StateError {
		return m
	}
	m.state = StateReady
	m.errorText = ""
	m.statusBar.SetStatus(components.StatusReady)
	return m
}

// =============================================================================
// REQUEST DISPATCH
// =============================================================================

// startRequest snapshots the conversation, appends the assistant
// placeholder, and emits the stream request for the shell to run.
// The payload is built before the placeholder so the API never sees
// the empty streaming message.
func (m Model) startRequest() (Model, tea.Cmd) {
	payload := m.conversation.ToAPIMessages()
	assistant := m.conversation.AddAssistantMessage()
	m.streamingMsgID = assistant.ID

	m.updateViewport()
	m.viewport.GotoBottom()

	req := StreamRequestMsg{
		MessageID: assistant.ID,
		Model:     m.conversation.Model,
		Messages:  payload,
	}
	return m, func() tea.Msg { return req }
}

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (Model, tea.Cmd) {
	cfg := msg.Config
	if cfg == nil {
		return m, nil
	}
	m.markdown = cfg.UI.Markdown
	m.showStats = cfg.UI.ShowStats
	m.conversation.Model = cfg.API.Model
	m.conversation.SystemPrompt = cfg.Chat.SystemPrompt
	if cfg.Chat.MaxHistory > 0 {
		m.conversation.MaxMessages = cfg.Chat.MaxHistory
	}
	m.statusBar.SetModel(cfg.API.Model)
	m.toasts.AddStatus("Configuration reloaded")
	m.updateViewport()
	return m, components.ToastTickCmd()
}

// =============================================================================
// HELPERS
// =============================================================================

// visibleMessages returns the slice of history the screen shows,
// honoring the clear-display cursor.
func (m *Model) visibleMessages() []*model.Message {
	msgs := m.conversation.Messages
	from := m.displayFrom
	if from > len(msgs) {
		// History was pruned underneath the cursor.
		from = len(msgs)
	}
	return msgs[from:]
}

func (m *Model) contextBudget() int {
	if m.conversation.MaxTokens > 0 {
		return m.conversation.MaxTokens
	}
	return defaultContextBudget
}

// recordUsage writes one entry to the usage ledger. Ledger failures
// never surface in the chat flow.
func (m *Model) recordUsage(stats *model.Statistics, succeeded bool) {
	if m.recorder == nil {
		return
	}
	rec := telemetry.Record{
		Timestamp: time.Now(),
		Model:     m.conversation.Model,
		Succeeded: succeeded,
	}
	if stats != nil {
		rec.PromptTokens = stats.PromptTokens
		rec.CompletionTokens = stats.CompletionTokens
		rec.TTFT = stats.TTFT
		rec.TotalDuration = stats.TotalDuration
	}
	_ = m.recorder.Record(rec)
}

// friendlyError maps transport failures onto actionable messages.
func friendlyError(err error) string {
	switch {
	case err == nil:
		return "Request failed"
	case openai.IsMissingKey(err):
		return "API key missing or rejected - check OPENAI_API_KEY"
	case openai.IsRateLimited(err):
		return "Rate limited - wait a moment and retry"
	case openai.IsTimeout(err):
		return "Request timed out - the server may be overloaded"
	case openai.IsConnection(err):
		return "Cannot reach the API - check your connection"
	default:
		return err.Error()
	}
}
