package protocol

import "time"

// JobEvent reports the completion of one batch job on the bus.
type JobEvent struct {
	RunID      string    `json:"run_id"`
	Ordinal    int       `json:"ordinal"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	ErrorMsg   string    `json:"error_msg,omitempty"`
	Locator    string    `json:"locator,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// RunDone reports the final tally of a batch run on the bus.
type RunDone struct {
	RunID     string    `json:"run_id"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	LogPath   string    `json:"log_path,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectJobResult = "chorus.job.result"
	SubjectRunDone   = "chorus.run.done"
)
