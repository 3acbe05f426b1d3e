// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "usage.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndTotals(t *testing.T) {
	l := openTestLedger(t)

	records := []Record{
		{Model: "gpt-4o-mini", PromptTokens: 10, CompletionTokens: 20, Succeeded: true},
		{Model: "gpt-4o-mini", PromptTokens: 5, CompletionTokens: 15, Succeeded: true},
		{Model: "gpt-4o-mini", Succeeded: false},
	}
	for _, rec := range records {
		if err := l.Record(rec); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	totals, err := l.TotalsSince(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("TotalsSince: %v", err)
	}

	if totals.Requests != 3 {
		t.Errorf("Requests = %d, want 3", totals.Requests)
	}
	if totals.Failures != 1 {
		t.Errorf("Failures = %d, want 1", totals.Failures)
	}
	if totals.PromptTokens != 15 {
		t.Errorf("PromptTokens = %d, want 15", totals.PromptTokens)
	}
	if totals.CompletionTokens != 35 {
		t.Errorf("CompletionTokens = %d, want 35", totals.CompletionTokens)
	}
	if totals.TotalTokens() != 50 {
		t.Errorf("TotalTokens = %d, want 50", totals.TotalTokens())
	}
}

func TestTotalsSinceExcludesOld(t *testing.T) {
	l := openTestLedger(t)

	old := Record{
		Timestamp:        time.Now().Add(-48 * time.Hour),
		Model:            "gpt-4o-mini",
		CompletionTokens: 100,
		Succeeded:        true,
	}
	if err := l.Record(old); err != nil {
		t.Fatal(err)
	}

	totals, err := l.TotalsSince(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if totals.Requests != 0 {
		t.Errorf("Requests = %d, want 0", totals.Requests)
	}
}

func TestRecent(t *testing.T) {
	l := openTestLedger(t)

	for i := 0; i < 5; i++ {
		rec := Record{
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
			Model:     "gpt-4o-mini",
			TTFT:      150 * time.Millisecond,
			Succeeded: true,
		}
		if err := l.Record(rec); err != nil {
			t.Fatal(err)
		}
	}

	records, err := l.Recent(3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3", len(records))
	}
	// Newest first.
	if records[0].Timestamp.Before(records[1].Timestamp) {
		t.Error("expected records in descending timestamp order")
	}
	if records[0].TTFT != 150*time.Millisecond {
		t.Errorf("TTFT = %v", records[0].TTFT)
	}
}

func TestPrune(t *testing.T) {
	l := openTestLedger(t)

	l.Record(Record{Timestamp: time.Now().Add(-72 * time.Hour), Model: "m", Succeeded: true})
	l.Record(Record{Model: "m", Succeeded: true})

	n, err := l.Prune(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}

	totals, _ := l.TotalsSince(time.Time{})
	if totals.Requests != 1 {
		t.Errorf("Requests = %d, want 1", totals.Requests)
	}
}

func TestClosedLedger(t *testing.T) {
	l := openTestLedger(t)
	l.Close()

	if err := l.Record(Record{Model: "m"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Record after close = %v, want ErrClosed", err)
	}
	if _, err := l.TotalsSince(time.Time{}); !errors.Is(err, ErrClosed) {
		t.Errorf("TotalsSince after close = %v, want ErrClosed", err)
	}
	// Double close is a no-op.
	if err := l.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	if err := r.Record(Record{Model: "m"}); err != nil {
		t.Errorf("NopRecorder.Record = %v", err)
	}
}

func TestLedgerReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	l.Record(Record{Model: "gpt-4o-mini", CompletionTokens: 7, Succeeded: true})
	l.Close()

	l2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l2.Close()

	totals, err := l2.TotalsSince(time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if totals.CompletionTokens != 7 {
		t.Errorf("CompletionTokens = %d, want 7 after reopen", totals.CompletionTokens)
	}
}
