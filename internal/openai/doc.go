// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openai provides the HTTP client for OpenAI-compatible chat APIs.
//
// This package implements a client for the /chat/completions endpoint,
// supporting both streaming (server-sent events) and non-streaming
// completions against api.openai.com or any compatible server.
//
// # Key Types
//
//   - Client: authorized HTTP client with rate limiting
//   - Message: chat message with role and content
//   - ChatRequest / ChatResponse: wire structures for completions
//   - StreamReader: SSE parser that surfaces token deltas as StreamChunks
//   - ClientError: typed errors (missing key, connection, timeout, rate
//     limit, API rejection, invalid response)
//
// # Usage
//
// Create a client and send a chat request:
//
//	client := openai.NewClient(os.Getenv("OPENAI_API_KEY"))
//	resp, err := client.Chat(ctx, "", []openai.Message{
//	    {Role: "user", Content: "Hello"},
//	})
//
// For streaming responses:
//
//	err := client.ChatStream(ctx, "", messages, func(chunk openai.StreamChunk) {
//	    if chunk.Content != "" {
//	        fmt.Print(chunk.Content)
//	    }
//	})
//
// # Errors
//
// All failures are reported as *ClientError. The IsMissingKey, IsConnection,
// IsTimeout, and IsRateLimited helpers classify errors without type
// assertions at call sites.
package openai
