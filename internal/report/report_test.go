package report

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/speechfoundry/chorus/internal/batch"
	"github.com/speechfoundry/chorus/internal/tts"
)

func sampleResults() []batch.Result {
	return []batch.Result{
		{Ordinal: 0, Name: "item_0000", Status: batch.StatusSuccess, Outcome: batch.Outcome{
			Locator:        "https://store.example/audio/0.mp3",
			Duration:       3 * time.Second,
			CharacterCount: 42,
			ProcessingTime: 150 * time.Millisecond,
		}},
		{Ordinal: 1, Name: "item_0001", Status: batch.StatusFailure, ErrKind: tts.KindInvalidInput, ErrMessage: "skipped: empty input"},
		{Ordinal: 2, Name: "item_0002", Status: batch.StatusSkipped, ErrMessage: "not attempted"},
	}
}

func TestSummarizeCounts(t *testing.T) {
	s := Summarize(sampleResults())
	if s.Total != 3 || s.Succeeded != 1 || s.Failed != 1 || s.Skipped != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if len(s.Results) != 3 {
		t.Fatalf("expected 3 records, got %d", len(s.Results))
	}
	if !s.Results[0].Success || s.Results[0].Locator == "" {
		t.Fatalf("success record malformed: %+v", s.Results[0])
	}
	if s.Results[1].ErrorKind != tts.KindInvalidInput {
		t.Fatalf("failure record malformed: %+v", s.Results[1])
	}
	if !s.Results[2].Skipped || s.Results[2].ErrorKind != "" {
		t.Fatalf("skipped record must not carry an error kind: %+v", s.Results[2])
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	results := sampleResults()
	first := Summarize(results)
	second := Summarize(results)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("summaries differ across invocations")
	}
}

func TestWriteAndLoadLog(t *testing.T) {
	dir := t.TempDir()
	log := RunLog{
		RunID:     "test-run-1",
		Input:     "document.txt",
		Timestamp: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Summary:   Summarize(sampleResults()),
	}
	path, err := WriteLog(dir, log)
	if err != nil {
		t.Fatalf("write log: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("log written outside dir: %s", path)
	}

	loaded, err := LoadLog(path)
	if err != nil {
		t.Fatalf("load log: %v", err)
	}
	if loaded.RunID != log.RunID || loaded.Input != log.Input {
		t.Fatalf("reloaded log differs: %+v", loaded)
	}
	if !reflect.DeepEqual(loaded.Summary, log.Summary) {
		t.Fatalf("reloaded summary differs:\n%+v\n%+v", loaded.Summary, log.Summary)
	}
}

func TestLoadLogMissingFile(t *testing.T) {
	if _, err := LoadLog(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing log")
	}
}
