package history

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/speechfoundry/chorus/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOpenDisabledIsNoop(t *testing.T) {
	ctx := context.Background()
	cfg := config.HistoryConfig{Enabled: false}
	hs, err := Open(ctx, cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = hs.Close() })

	if err := hs.RecordRequest(ctx, Request{RequestID: "r1", UserID: "u1"}); err != nil {
		t.Fatalf("record on disabled store: %v", err)
	}
	reqs, err := hs.ListRequests(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list on disabled store: %v", err)
	}
	if reqs != nil {
		t.Fatalf("expected no records, got %d", len(reqs))
	}
}

func TestRecordAndListRequests(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.HistoryConfig{Enabled: true, Path: filepath.Join(tmp, "history.db")}
	hs, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { _ = hs.Close() })

	hs.clock = func() time.Time { return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC) }
	if err := hs.RecordRequest(context.Background(), Request{
		RequestID:  "req-1",
		UserID:     "user-1",
		Kind:       "text",
		TextLength: 42,
		VoiceName:  "en-US-Neural2-A",
		Language:   "en-US",
		Encoding:   "MP3",
		Status:     "success",
		Locator:    "/tmp/a.mp3",
	}); err != nil {
		t.Fatalf("record request: %v", err)
	}

	hs.clock = func() time.Time { return time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC) }
	if err := hs.RecordRequest(context.Background(), Request{
		RequestID: "req-2",
		UserID:    "user-1",
		Kind:      "ssml",
		Status:    "failure",
		ErrorKind: "InvalidInput",
	}); err != nil {
		t.Fatalf("record request: %v", err)
	}

	reqs, err := hs.ListRequests(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
	if reqs[0].RequestID != "req-2" {
		t.Fatalf("expected newest first, got %s", reqs[0].RequestID)
	}
	if reqs[1].TextLength != 42 || reqs[1].VoiceName != "en-US-Neural2-A" {
		t.Fatalf("request fields not round-tripped: %+v", reqs[1])
	}

	other, err := hs.ListRequests(context.Background(), "user-2", 10)
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no requests for other user, got %d", len(other))
	}
}

func TestRecordRunUpsert(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.HistoryConfig{Enabled: true, Path: filepath.Join(tmp, "history.db")}
	hs, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { _ = hs.Close() })

	run := Run{RunID: "run-1", UserID: "user-1", Total: 5, Succeeded: 3, Failed: 1, Skipped: 1}
	if err := hs.RecordRun(context.Background(), run); err != nil {
		t.Fatalf("record run: %v", err)
	}
	run.Succeeded = 4
	run.Failed = 0
	if err := hs.RecordRun(context.Background(), run); err != nil {
		t.Fatalf("record run update: %v", err)
	}

	runs, err := hs.ListRuns(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run after upsert, got %d", len(runs))
	}
	if runs[0].Succeeded != 4 || runs[0].Failed != 0 {
		t.Fatalf("run not updated: %+v", runs[0])
	}
}

func TestPruneByDaysAndCount(t *testing.T) {
	tmp := t.TempDir()
	cfg := config.HistoryConfig{Enabled: true, Path: filepath.Join(tmp, "history.db"), RetentionDays: 1, MaxRequests: 1}
	hs, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { _ = hs.Close() })

	hs.clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := hs.RecordRequest(context.Background(), Request{RequestID: "old", UserID: "u", Kind: "text", Status: "success"}); err != nil {
		t.Fatalf("record request: %v", err)
	}

	hs.clock = func() time.Time { return time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := hs.RecordRequest(context.Background(), Request{RequestID: "new", UserID: "u", Kind: "text", Status: "success"}); err != nil {
		t.Fatalf("record request: %v", err)
	}
	if err := hs.Prune(context.Background()); err != nil {
		t.Fatalf("prune: %v", err)
	}

	reqs, err := hs.ListRequests(context.Background(), "u", 10)
	if err != nil {
		t.Fatalf("list requests: %v", err)
	}
	if len(reqs) != 1 || reqs[0].RequestID != "new" {
		t.Fatalf("expected only newest request to survive, got %+v", reqs)
	}
}
