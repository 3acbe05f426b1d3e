// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"
)

// =============================================================================
// STREAM CHUNK
// =============================================================================

// StreamChunk is a single unit of a streaming response delivered to callers.
type StreamChunk struct {
	// Content is the token text delta (may be empty on control chunks).
	Content string

	// Done marks the final chunk of the stream.
	Done bool

	// FinishReason from the API ("stop", "length", ...), set when known.
	FinishReason string

	// Model that produced the response.
	Model string

	// Token accounting, populated on the final chunk when the server
	// reports usage.
	PromptTokens     int
	CompletionTokens int

	// Error is set when the stream failed; always paired with Done.
	Error error
}

// =============================================================================
// STREAM READER
// =============================================================================

// ssePrefix introduces each server-sent event data line.
var ssePrefix = []byte("data: ")

// sseDone is the terminator event body.
var sseDone = []byte("[DONE]")

// StreamReader parses server-sent events from a chat completion stream.
type StreamReader struct {
	scanner *bufio.Scanner
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	accumulator  strings.Builder
	chunkCount   int
	model        string
	finishReason string
	usage        *Usage
}

// maxSSELineSize bounds a single event line. Token deltas are tiny, but
// usage blocks and error payloads can be larger.
const maxSSELineSize = 1024 * 1024

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &StreamReader{
		scanner: scanner,
	}
}

// Process reads the stream and calls the callback for each chunk.
// Blocks until the stream is complete or the context is cancelled.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			chunk, err := s.readChunk()
			if err != nil {
				if err == io.EOF {
					// Stream ended without a [DONE] event; synthesize
					// the final chunk so callers always see Done.
					callback(s.finalChunk())
					return nil
				}
				return err
			}

			if chunk != nil {
				callback(*chunk)
				if chunk.Done {
					return nil
				}
			}
		}
	}
}

// readChunk reads and parses a single SSE event from the stream.
// Returns (nil, nil) for lines that carry no chunk (keepalives, comments).
func (s *StreamReader) readChunk() (*StreamChunk, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, &ClientError{Type: ErrTypeConnection, Message: "stream interrupted", Cause: err}
		}
		return nil, io.EOF
	}

	line := s.scanner.Bytes()

	// Skip blank separators and SSE comments.
	if len(line) == 0 || line[0] == ':' {
		return nil, nil
	}

	if !bytes.HasPrefix(line, ssePrefix) {
		return nil, nil
	}
	data := bytes.TrimSpace(line[len(ssePrefix):])

	if bytes.Equal(data, sseDone) {
		chunk := s.finalChunk()
		return &chunk, nil
	}

	var wire streamChunkWire
	if err := json.Unmarshal(data, &wire); err != nil {
		// Skip malformed events
		return nil, nil
	}

	if wire.Model != "" {
		s.model = wire.Model
	}
	if wire.Usage != nil {
		s.usage = wire.Usage
	}

	content := ""
	if len(wire.Choices) > 0 {
		content = wire.Choices[0].Delta.Content
		if reason := wire.Choices[0].FinishReason; reason != nil && *reason != "" {
			s.finishReason = *reason
		}
	}

	if content != "" {
		s.accumulator.WriteString(content)
		s.chunkCount++
	}

	// Usage-only and finish-reason-only events carry no visible token;
	// still surface content deltas immediately.
	if content == "" {
		return nil, nil
	}

	return &StreamChunk{
		Content: content,
		Model:   s.model,
	}, nil
}

// finalChunk builds the Done chunk from accumulated stream state.
func (s *StreamReader) finalChunk() StreamChunk {
	chunk := StreamChunk{
		Done:         true,
		Model:        s.model,
		FinishReason: s.finishReason,
	}
	if s.usage != nil {
		chunk.PromptTokens = s.usage.PromptTokens
		chunk.CompletionTokens = s.usage.CompletionTokens
	} else {
		// Fall back to the delta count when the server omits usage.
		chunk.CompletionTokens = s.chunkCount
	}
	return chunk
}

// GetAccumulated returns all accumulated content.
func (s *StreamReader) GetAccumulated() string {
	return s.accumulator.String()
}

// GetChunkCount returns the number of content deltas received.
func (s *StreamReader) GetChunkCount() int {
	return s.chunkCount
}

// GetModel returns the model name from the stream.
func (s *StreamReader) GetModel() string {
	return s.model
}

// =============================================================================
// STREAM STATISTICS
// =============================================================================

// StreamStats holds statistics collected during streaming.
type StreamStats struct {
	// Timing
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	// Token counts
	PromptTokens     int
	CompletionTokens int

	// Computed
	TTFT            time.Duration // Time to first token
	TotalDuration   time.Duration
	TokensPerSecond float64
}

// NewStreamStats creates a new StreamStats with start time set.
func NewStreamStats() *StreamStats {
	return &StreamStats{
		StartTime: time.Now(),
	}
}

// RecordFirstToken marks the time of first token arrival.
func (s *StreamStats) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// Finalize computes final statistics from the last chunk.
func (s *StreamStats) Finalize(chunk StreamChunk) {
	s.EndTime = time.Now()
	s.PromptTokens = chunk.PromptTokens
	s.CompletionTokens = chunk.CompletionTokens
	s.TotalDuration = s.EndTime.Sub(s.StartTime)

	if s.TotalDuration > 0 {
		s.TokensPerSecond = float64(s.CompletionTokens) / s.TotalDuration.Seconds()
	}
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamAccumulator collects streaming chunks and builds statistics.
type StreamAccumulator struct {
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	content strings.Builder
	Stats   *StreamStats
	Done    bool
	Error   error
}

// NewStreamAccumulator creates a new accumulator.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{
		Stats: NewStreamStats(),
	}
}

// Add processes a new chunk.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	if chunk.Error != nil {
		a.Error = chunk.Error
		a.Done = true
		return
	}

	// Record first token
	if chunk.Content != "" && a.content.Len() == 0 {
		a.Stats.RecordFirstToken()
	}

	a.content.WriteString(chunk.Content)

	if chunk.Done {
		a.Done = true
		a.Stats.Finalize(chunk)
	}
}

// GetContent returns the accumulated content.
func (a *StreamAccumulator) GetContent() string {
	return a.content.String()
}

// IsDone returns whether streaming is complete.
func (a *StreamAccumulator) IsDone() bool {
	return a.Done
}

// GetError returns any error that occurred.
func (a *StreamAccumulator) GetError() error {
	return a.Error
}

// GetStats returns the collected statistics.
func (a *StreamAccumulator) GetStats() *StreamStats {
	return a.Stats
}
