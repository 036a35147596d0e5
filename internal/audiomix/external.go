package audiomix

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/speechfoundry/chorus/internal/tts"
)

// combineExternal shells out to ffmpeg's concat demuxer for encodings we
// cannot splice natively. Segments are staged as temp files; the whole
// operation fails when ffmpeg is missing or exits non-zero.
func (c *Combiner) combineExternal(ctx context.Context, segments [][]byte, enc tts.Encoding) ([]byte, error) {
	if len(c.ffmpeg) == 0 {
		return nil, tts.NewError(tts.KindCombine, "no ffmpeg command configured", nil)
	}
	if _, err := exec.LookPath(c.ffmpeg[0]); err != nil {
		return nil, tts.NewError(tts.KindCombine, fmt.Sprintf("%s not available", c.ffmpeg[0]), err)
	}

	dir, err := os.MkdirTemp("", "chorus-combine-*")
	if err != nil {
		return nil, tts.NewError(tts.KindCombine, "create staging dir", err)
	}
	defer os.RemoveAll(dir)

	ext := enc.Ext()
	var list bytes.Buffer
	for i, seg := range segments {
		name := filepath.Join(dir, fmt.Sprintf("segment_%04d%s", i, ext))
		if err := os.WriteFile(name, seg, 0o644); err != nil {
			return nil, tts.NewError(tts.KindCombine, fmt.Sprintf("stage segment %d", i), err)
		}
		fmt.Fprintf(&list, "file '%s'\n", name)
	}
	listPath := filepath.Join(dir, "segments.txt")
	if err := os.WriteFile(listPath, list.Bytes(), 0o644); err != nil {
		return nil, tts.NewError(tts.KindCombine, "write concat list", err)
	}

	outPath := filepath.Join(dir, "combined"+ext)
	args := append([]string{}, c.ffmpeg[1:]...)
	args = append(args,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.ffmpeg[0], args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		c.log.Warn("ffmpeg concat failed", slog.String("stderr", stderr.String()))
		return nil, tts.NewError(tts.KindCombine, "ffmpeg concat failed", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, tts.NewError(tts.KindCombine, "read combined output", err)
	}
	if len(out) == 0 {
		return nil, tts.NewError(tts.KindCombine, "ffmpeg produced empty output", nil)
	}
	return out, nil
}
