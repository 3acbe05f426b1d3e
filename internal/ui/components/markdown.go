// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the console TUI.
package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownCache holds one glamour renderer per wrap width. Renderer
// construction is expensive, and the terminal width rarely changes.
// PERFORMANCE: Re-creating the renderer per message caused visible lag
// on resize-heavy sessions.
var markdownCache = struct {
	mu       sync.Mutex
	width    int
	renderer *glamour.TermRenderer
}{}

// RenderMarkdown renders markdown content for terminal display at the
// given wrap width. Returns the original content unchanged if rendering
// fails, so a malformed reply never blanks the transcript.
func RenderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}

	renderer := markdownRendererFor(width)
	if renderer == nil {
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}

	// Glamour pads with blank lines top and bottom; the bubble adds its
	// own spacing.
	return strings.Trim(rendered, "\n")
}

// markdownRendererFor returns a cached renderer for the width, building a
// new one when the width changed.
func markdownRendererFor(width int) *glamour.TermRenderer {
	markdownCache.mu.Lock()
	defer markdownCache.mu.Unlock()

	if markdownCache.renderer != nil && markdownCache.width == width {
		return markdownCache.renderer
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}

	markdownCache.width = width
	markdownCache.renderer = renderer
	return renderer
}
