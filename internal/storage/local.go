package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/speechfoundry/chorus/internal/tts"
)

// Local writes artifacts under a single output directory.
type Local struct {
	dir string
	log *slog.Logger
}

// NewLocal creates the output directory if it does not exist.
func NewLocal(dir string, log *slog.Logger) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage: output directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, tts.NewError(tts.KindStorage, "create output directory", err)
	}
	return &Local{
		dir: dir,
		log: log.With(slog.String("component", "storage.local")),
	}, nil
}

// Put writes the artifact and returns its absolute path.
func (l *Local) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	path := filepath.Join(l.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", tts.NewError(tts.KindStorage, "write audio file", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	l.log.Debug("artifact written", slog.String("path", abs), slog.Int("bytes", len(data)))
	return abs, nil
}

// Dir returns the configured output directory.
func (l *Local) Dir() string { return l.dir }
