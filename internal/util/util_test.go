// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the console application.
package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// =============================================================================
// TRUNCATION TESTS
// =============================================================================

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"zero max", "hello", 0, ""},
		{"tiny max no ellipsis", "hello", 2, "he"},
		{"unicode not split", "héllo wörld", 8, "héllo..."},
		{"cjk runes counted not bytes", "こんにちは", 4, "こ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateRunes(tt.input, tt.maxRunes)
			if got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.maxRunes, got, tt.want)
			}
		})
	}
}

func TestTruncateWidth(t *testing.T) {
	// CJK characters are 2 columns wide, so 4 characters = 8 columns.
	s := "こんにちは"
	got := TruncateWidth(s, 8)
	if StringWidth(got) > 8 {
		t.Errorf("TruncateWidth produced width %d, want <= 8", StringWidth(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("TruncateWidth(%q, 8) = %q, expected ellipsis", s, got)
	}

	if got := TruncateWidth("ok", 10); got != "ok" {
		t.Errorf("short string should be unchanged, got %q", got)
	}
}

func TestStringWidth(t *testing.T) {
	if w := StringWidth("abc"); w != 3 {
		t.Errorf("StringWidth(abc) = %d, want 3", w)
	}
	if w := StringWidth("日本"); w != 4 {
		t.Errorf("StringWidth(日本) = %d, want 4", w)
	}
}

// =============================================================================
// WORD WRAP TESTS
// =============================================================================

func TestWordWrap(t *testing.T) {
	got := WordWrap("the quick brown fox jumps", 10)
	for _, line := range strings.Split(got, "\n") {
		if StringWidth(line) > 10 {
			t.Errorf("line %q exceeds width 10", line)
		}
	}
	if strings.ReplaceAll(got, "\n", " ") != "the quick brown fox jumps" {
		t.Errorf("WordWrap lost content: %q", got)
	}
}

func TestWordWrapPreservesNewlines(t *testing.T) {
	got := WordWrap("one\ntwo", 20)
	if got != "one\ntwo" {
		t.Errorf("WordWrap = %q, want newlines preserved", got)
	}
}

func TestWordWrapBreaksLongWords(t *testing.T) {
	got := WordWrap("abcdefghijklmnop", 5)
	for _, line := range strings.Split(got, "\n") {
		if StringWidth(line) > 5 {
			t.Errorf("line %q exceeds width 5", line)
		}
	}
}

// =============================================================================
// INPUT NORMALIZATION TESTS
// =============================================================================

func TestNormalizeInput(t *testing.T) {
	if got := NormalizeInput("  hello  "); got != "hello" {
		t.Errorf("NormalizeInput trim failed: %q", got)
	}

	// "é" as e + combining acute accent should normalize to the
	// precomposed form.
	decomposed := "é"
	if got := NormalizeInput(decomposed); got != "é" {
		t.Errorf("NormalizeInput NFC failed: %q", got)
	}

	if got := NormalizeInput("   "); got != "" {
		t.Errorf("whitespace-only input should normalize to empty, got %q", got)
	}
}

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.txt")

	if err := AtomicWriteFile(path, []byte("payload"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("content = %q, want 'payload'", data)
	}

	// Overwrite must replace, not append.
	if err := AtomicWriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatalf("AtomicWriteFile overwrite failed: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "v2" {
		t.Errorf("content after overwrite = %q, want 'v2'", data)
	}

	// No temp files left behind.
	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file %q", e.Name())
		}
	}
}
