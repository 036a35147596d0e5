// Package report turns batch results into summaries and durable run logs.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/speechfoundry/chorus/internal/batch"
	"github.com/speechfoundry/chorus/internal/tts"
)

// JobRecord is the audit entry for one job in a run log.
type JobRecord struct {
	Ordinal          int      `json:"ordinal"`
	Name             string   `json:"name,omitempty"`
	Success          bool     `json:"success"`
	Skipped          bool     `json:"skipped,omitempty"`
	Locator          string   `json:"locator,omitempty"`
	LocalPath        string   `json:"local_path,omitempty"`
	DurationSeconds  float64  `json:"duration_seconds,omitempty"`
	CharacterCount   int      `json:"character_count,omitempty"`
	ProcessingTimeMS int64    `json:"processing_time_ms,omitempty"`
	ErrorKind        tts.Kind `json:"error_kind,omitempty"`
	ErrorMessage     string   `json:"error_message,omitempty"`
}

// Summary aggregates one run's outcomes. Computable from results alone.
type Summary struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Skipped   int         `json:"skipped"`
	Results   []JobRecord `json:"results"`
}

// RunLog is the persisted form of one batch run.
type RunLog struct {
	RunID     string    `json:"run_id"`
	Input     string    `json:"input,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Summary   Summary   `json:"summary"`
}

// Summarize folds ordered results into a Summary. Calling it twice on
// the same slice yields identical values.
func Summarize(results []batch.Result) Summary {
	s := Summary{Total: len(results), Results: make([]JobRecord, 0, len(results))}
	for _, res := range results {
		rec := JobRecord{
			Ordinal: res.Ordinal,
			Name:    res.Name,
		}
		switch res.Status {
		case batch.StatusSuccess:
			s.Succeeded++
			rec.Success = true
			rec.Locator = res.Outcome.Locator
			rec.LocalPath = res.Outcome.LocalPath
			rec.DurationSeconds = res.Outcome.Duration.Seconds()
			rec.CharacterCount = res.Outcome.CharacterCount
			rec.ProcessingTimeMS = res.Outcome.ProcessingTime.Milliseconds()
		case batch.StatusSkipped:
			s.Skipped++
			rec.Skipped = true
			rec.ErrorMessage = res.ErrMessage
		default:
			s.Failed++
			rec.ErrorKind = res.ErrKind
			rec.ErrorMessage = res.ErrMessage
		}
		s.Results = append(s.Results, rec)
	}
	return s
}

// WriteLog persists a run log as indented JSON under dir and returns the
// file path.
func WriteLog(dir string, log RunLog) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run log: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("run_%s.json", log.RunID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write run log: %w", err)
	}
	return path, nil
}

// LoadLog reads back a previously written run log for audit.
func LoadLog(path string) (RunLog, error) {
	var log RunLog
	data, err := os.ReadFile(path)
	if err != nil {
		return log, fmt.Errorf("read run log: %w", err)
	}
	if err := json.Unmarshal(data, &log); err != nil {
		return log, fmt.Errorf("parse run log: %w", err)
	}
	return log, nil
}
