// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// STREAM READER TESTS
// =============================================================================

func sseEvent(json string) string {
	return "data: " + json + "\n\n"
}

func TestStreamReaderBasic(t *testing.T) {
	stream := sseEvent(`{"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"}}]}`) +
		sseEvent(`{"choices":[{"index":0,"delta":{"content":"lo"}}]}`) +
		sseEvent(`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`) +
		"data: [DONE]\n\n"

	reader := NewStreamReader(strings.NewReader(stream))

	var chunks []StreamChunk
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		chunks = append(chunks, chunk)
	})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if reader.GetAccumulated() != "Hello" {
		t.Errorf("accumulated = %q, want 'Hello'", reader.GetAccumulated())
	}
	if reader.GetModel() != "gpt-4o-mini" {
		t.Errorf("model = %q, want 'gpt-4o-mini'", reader.GetModel())
	}

	last := chunks[len(chunks)-1]
	if !last.Done {
		t.Error("expected final chunk to be Done")
	}
	if last.FinishReason != "stop" {
		t.Errorf("finish reason = %q, want 'stop'", last.FinishReason)
	}
}

func TestStreamReaderUsage(t *testing.T) {
	stream := sseEvent(`{"choices":[{"index":0,"delta":{"content":"hi"}}]}`) +
		sseEvent(`{"choices":[],"usage":{"prompt_tokens":12,"completion_tokens":7,"total_tokens":19}}`) +
		"data: [DONE]\n\n"

	reader := NewStreamReader(strings.NewReader(stream))

	var final StreamChunk
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		if chunk.Done {
			final = chunk
		}
	})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if final.PromptTokens != 12 {
		t.Errorf("prompt tokens = %d, want 12", final.PromptTokens)
	}
	if final.CompletionTokens != 7 {
		t.Errorf("completion tokens = %d, want 7", final.CompletionTokens)
	}
}

func TestStreamReaderSkipsMalformedAndComments(t *testing.T) {
	stream := ": keepalive\n\n" +
		"data: {not valid json\n\n" +
		"event: ping\n" +
		sseEvent(`{"choices":[{"index":0,"delta":{"content":"ok"}}]}`) +
		"data: [DONE]\n\n"

	reader := NewStreamReader(strings.NewReader(stream))

	err := reader.Process(context.Background(), func(StreamChunk) {})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if reader.GetAccumulated() != "ok" {
		t.Errorf("accumulated = %q, want 'ok'", reader.GetAccumulated())
	}
}

func TestStreamReaderEOFWithoutDone(t *testing.T) {
	// A dropped connection ends the stream without [DONE]; callers must
	// still receive a Done chunk.
	stream := sseEvent(`{"choices":[{"index":0,"delta":{"content":"partial"}}]}`)

	reader := NewStreamReader(strings.NewReader(stream))

	sawDone := false
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		if chunk.Done {
			sawDone = true
		}
	})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if !sawDone {
		t.Error("expected a Done chunk on EOF")
	}
}

func TestStreamReaderContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewStreamReader(strings.NewReader(sseEvent(`{"choices":[]}`)))
	err := reader.Process(ctx, func(StreamChunk) {})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// =============================================================================
// STREAM ACCUMULATOR TESTS
// =============================================================================

func TestStreamAccumulator(t *testing.T) {
	acc := NewStreamAccumulator()

	acc.Add(StreamChunk{Content: "Hello"})
	acc.Add(StreamChunk{Content: ", world"})
	acc.Add(StreamChunk{Done: true, PromptTokens: 5, CompletionTokens: 2})

	if !acc.IsDone() {
		t.Error("expected accumulator to be done")
	}
	if acc.GetContent() != "Hello, world" {
		t.Errorf("content = %q", acc.GetContent())
	}
	if acc.GetStats().CompletionTokens != 2 {
		t.Errorf("completion tokens = %d, want 2", acc.GetStats().CompletionTokens)
	}
	if acc.GetStats().TTFT <= 0 {
		t.Error("expected TTFT to be recorded")
	}
}

func TestStreamAccumulatorError(t *testing.T) {
	acc := NewStreamAccumulator()

	streamErr := &ClientError{Type: ErrTypeConnection, Message: "boom"}
	acc.Add(StreamChunk{Error: streamErr, Done: true})

	if !acc.IsDone() {
		t.Error("expected accumulator to be done after error")
	}
	if acc.GetError() != streamErr {
		t.Errorf("expected error to be surfaced, got %v", acc.GetError())
	}
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func newTestClient(url string) *Client {
	return NewClientWithConfig(&ClientConfig{
		BaseURL:           url,
		APIKey:            "test-key",
		Model:             "gpt-4o-mini",
		Timeout:           5 * time.Second,
		RequestsPerMinute: 0,
	})
}

func TestChatNonStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": [{"index":0,"message":{"role":"assistant","content":"Hi there"},"finish_reason":"stop"}],
			"usage": {"prompt_tokens":9,"completion_tokens":3,"total_tokens":12}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.Chat(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	if resp.Content() != "Hi there" {
		t.Errorf("content = %q, want 'Hi there'", resp.Content())
	}
	if resp.Usage.TotalTokens != 12 {
		t.Errorf("total tokens = %d, want 12", resp.Usage.TotalTokens)
	}
}

func TestChatStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sseEvent(`{"model":"gpt-4o-mini","choices":[{"index":0,"delta":{"content":"str"}}]}`)))
		w.Write([]byte(sseEvent(`{"choices":[{"index":0,"delta":{"content":"eam"}}]}`)))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	var content strings.Builder
	sawDone := false
	err := client.ChatStream(context.Background(), "", []Message{{Role: "user", Content: "hi"}}, func(chunk StreamChunk) {
		content.WriteString(chunk.Content)
		if chunk.Done {
			sawDone = true
		}
	})
	if err != nil {
		t.Fatalf("ChatStream returned error: %v", err)
	}

	if content.String() != "stream" {
		t.Errorf("content = %q, want 'stream'", content.String())
	}
	if !sawDone {
		t.Error("expected a Done chunk")
	}
}

func TestChatStreamChan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sseEvent(`{"choices":[{"index":0,"delta":{"content":"x"}}]}`)))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ch := client.ChatStreamChan(context.Background(), "", []Message{{Role: "user", Content: "hi"}})

	var content strings.Builder
	for chunk := range ch {
		if chunk.Error != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Error)
		}
		content.WriteString(chunk.Content)
	}

	if content.String() != "x" {
		t.Errorf("content = %q, want 'x'", content.String())
	}
}

func TestMissingAPIKey(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://127.0.0.1:0"})

	_, err := client.Chat(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
	if !IsMissingKey(err) {
		t.Errorf("expected missing key error, got %v", err)
	}

	err = client.ChatStream(context.Background(), "", nil, func(StreamChunk) {})
	if !IsMissingKey(err) {
		t.Errorf("expected missing key error from stream, got %v", err)
	}
}

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{
			"unauthorized",
			http.StatusUnauthorized,
			`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			func(err error) bool {
				var ce *ClientError
				return errors.As(err, &ce) && ce.Type == ErrTypeAPI
			},
		},
		{
			"rate limited",
			http.StatusTooManyRequests,
			`{"error":{"message":"Rate limit reached","type":"rate_limit_error"}}`,
			IsRateLimited,
		},
		{
			"server error without body",
			http.StatusInternalServerError,
			``,
			func(err error) bool {
				var ce *ClientError
				return errors.As(err, &ce) && ce.Type == ErrTypeAPI
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			_, err := client.Chat(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
			if err == nil {
				t.Fatal("expected error")
			}
			if !tc.check(err) {
				t.Errorf("error not classified as expected: %v", err)
			}
		})
	}
}

func TestAPIErrorMessageSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"model does not exist","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Chat(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model does not exist") {
		t.Errorf("expected API message in error, got %q", err.Error())
	}
}

func TestConnectionRefused(t *testing.T) {
	// Closed server gives a connection error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(url)
	_, err := client.Chat(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
	if !IsConnection(err) {
		t.Errorf("expected connection error, got %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{APIKey: "k"})

	cfg := client.GetConfig()
	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestSetModel(t *testing.T) {
	client := NewClient("k")
	client.SetModel("gpt-4o")
	if client.Model() != "gpt-4o" {
		t.Errorf("Model = %q, want 'gpt-4o'", client.Model())
	}
}

// =============================================================================
// ERROR HELPER TESTS
// =============================================================================

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"missing key sentinel", ErrMissingKey, IsMissingKey, true},
		{"timeout sentinel", ErrTimeout, IsTimeout, true},
		{"rate limit sentinel", ErrRateLimited, IsRateLimited, true},
		{"wrapped timeout", &ClientError{Type: ErrTypeTimeout, Message: "t"}, IsTimeout, true},
		{"connection", &ClientError{Type: ErrTypeConnection, Message: "c"}, IsConnection, true},
		{"plain error", errors.New("x"), IsTimeout, false},
		{"nil", nil, IsMissingKey, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.check(tc.err); got != tc.want {
				t.Errorf("check = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClientErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := &ClientError{Type: ErrTypeConnection, Message: "failed", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "underlying") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}
