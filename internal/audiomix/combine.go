// Package audiomix concatenates per-chunk audio artifacts into a single
// stream. Combination is all-or-nothing: callers keep the individual
// segments whenever an error comes back.
package audiomix

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mattn/go-shellwords"

	"github.com/speechfoundry/chorus/internal/tts"
)

// Combiner merges ordered audio segments of one encoding.
type Combiner struct {
	ffmpeg []string
	log    *slog.Logger
}

// New parses the configured ffmpeg command line. An empty command
// disables the external path; WAV combination still works natively.
func New(ffmpegCommand string, log *slog.Logger) (*Combiner, error) {
	c := &Combiner{log: log.With(slog.String("component", "audiomix"))}
	if ffmpegCommand != "" {
		parser := shellwords.NewParser()
		args, err := parser.Parse(ffmpegCommand)
		if err != nil {
			return nil, fmt.Errorf("parse ffmpeg command: %w", err)
		}
		c.ffmpeg = args
	}
	return c, nil
}

// Combine concatenates segments in order into one buffer of the same
// encoding. LINEAR16 is merged natively; MP3 and OGG_OPUS go through
// ffmpeg. Any decode failure or format mismatch fails the whole
// operation without emitting partial output.
func (c *Combiner) Combine(ctx context.Context, segments [][]byte, enc tts.Encoding) ([]byte, error) {
	if len(segments) == 0 {
		return nil, tts.NewError(tts.KindCombine, "no segments to combine", nil)
	}
	for i, seg := range segments {
		if len(seg) == 0 {
			return nil, tts.NewError(tts.KindCombine, fmt.Sprintf("segment %d is empty", i), nil)
		}
	}
	if len(segments) == 1 {
		out := make([]byte, len(segments[0]))
		copy(out, segments[0])
		return out, nil
	}

	switch enc {
	case tts.EncodingLinear16:
		return c.combineWAV(segments)
	case tts.EncodingMP3, tts.EncodingOggOpus:
		return c.combineExternal(ctx, segments, enc)
	default:
		return nil, tts.NewError(tts.KindCombine, fmt.Sprintf("unsupported encoding %s", enc), nil)
	}
}

func (c *Combiner) combineWAV(segments [][]byte) ([]byte, error) {
	var merged *audio.IntBuffer

	for i, seg := range segments {
		dec := wav.NewDecoder(bytes.NewReader(seg))
		if !dec.IsValidFile() {
			return nil, tts.NewError(tts.KindCombine, fmt.Sprintf("segment %d is not a valid wav file", i), nil)
		}
		buf, err := dec.FullPCMBuffer()
		if err != nil {
			return nil, tts.NewError(tts.KindCombine, fmt.Sprintf("decode segment %d", i), err)
		}
		if merged == nil {
			merged = &audio.IntBuffer{
				Format:         buf.Format,
				SourceBitDepth: buf.SourceBitDepth,
				Data:           append([]int(nil), buf.Data...),
			}
			continue
		}
		if buf.Format.SampleRate != merged.Format.SampleRate ||
			buf.Format.NumChannels != merged.Format.NumChannels {
			return nil, tts.NewError(tts.KindCombine,
				fmt.Sprintf("segment %d format mismatch: %d Hz %d ch vs %d Hz %d ch",
					i, buf.Format.SampleRate, buf.Format.NumChannels,
					merged.Format.SampleRate, merged.Format.NumChannels), nil)
		}
		merged.Data = append(merged.Data, buf.Data...)
	}

	bitDepth := merged.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	out, err := encodeWAV(merged, bitDepth)
	if err != nil {
		return nil, tts.NewError(tts.KindCombine, "encode combined wav", err)
	}
	c.log.Debug("combined wav segments",
		slog.Int("segments", len(segments)),
		slog.Int("frames", len(merged.Data)))
	return out, nil
}

func encodeWAV(buf *audio.IntBuffer, bitDepth int) ([]byte, error) {
	var out patchBuffer
	enc := wav.NewEncoder(&out, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, 1)
	if err := enc.Write(buf); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return out.data, nil
}
