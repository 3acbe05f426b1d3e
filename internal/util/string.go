// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the console application.
package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// UNICODE: Rune-aware truncation preserves multi-byte characters.
// These functions handle strings correctly regardless of character encoding,
// preventing mid-character truncation that would corrupt UTF-8 strings.
// Display widths come from go-runewidth so double-width CJK characters
// count as 2 columns.

// TruncateRunes truncates a string to a maximum number of runes (characters).
// This is safe for UTF-8 strings as it counts characters, not bytes.
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateWidth truncates a string to a maximum display width.
// Double-width characters (CJK) take 2 columns.
// If the string is truncated, "..." is appended when it fits.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth > 3 {
		return runewidth.Truncate(s, maxWidth, "...")
	}
	return runewidth.Truncate(s, maxWidth, "")
}

// StringWidth returns the display width of a string.
// Double-width characters (CJK) count as 2 columns.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// RuneLen returns the number of runes (characters) in a string.
// This is safer than len() for UTF-8 strings.
func RuneLen(s string) int {
	return len([]rune(s))
}

// WordWrap wraps text to the given display width, breaking on spaces where
// possible and mid-word when a single word exceeds the width. Existing
// newlines are preserved.
func WordWrap(s string, width int) string {
	if width <= 0 {
		return s
	}

	var out strings.Builder
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(wrapLine(line, width))
	}
	return out.String()
}

// wrapLine wraps a single line (no newlines) to the given display width.
func wrapLine(line string, width int) string {
	if runewidth.StringWidth(line) <= width {
		return line
	}

	var out strings.Builder
	lineWidth := 0
	for _, word := range strings.Fields(line) {
		wordWidth := runewidth.StringWidth(word)

		// Break oversized words by column.
		if wordWidth > width {
			if lineWidth > 0 {
				out.WriteByte('\n')
			}
			for len(word) > 0 {
				chunk := runewidth.Truncate(word, width, "")
				if chunk == "" {
					break
				}
				out.WriteString(chunk)
				word = word[len(chunk):]
				if len(word) > 0 {
					out.WriteByte('\n')
				}
			}
			lineWidth = runewidth.StringWidth(lastLine(out.String()))
			continue
		}

		switch {
		case lineWidth == 0:
			out.WriteString(word)
			lineWidth = wordWidth
		case lineWidth+1+wordWidth <= width:
			out.WriteByte(' ')
			out.WriteString(word)
			lineWidth += 1 + wordWidth
		default:
			out.WriteByte('\n')
			out.WriteString(word)
			lineWidth = wordWidth
		}
	}
	return out.String()
}

// lastLine returns the text after the final newline.
func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// NormalizeInput prepares raw user input for dispatch: trims surrounding
// whitespace and applies Unicode NFC normalization so that visually
// identical inputs produce identical request payloads.
func NormalizeInput(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
