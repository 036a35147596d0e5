package tts

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/speechfoundry/chorus/internal/chunk"
)

// demoSynth produces a locally generated placeholder tone instead of
// calling a provider. It exists for offline development only and must be
// selected explicitly via tts.mode=demo; provider failures never fall
// back to it.
type demoSynth struct {
	sampleRate int
}

const demoToneHz = 440

var errInvalidSeek = errors.New("tts: invalid seek")

func NewDemoSynth(sampleRate int) Synthesizer {
	if sampleRate <= 0 {
		sampleRate = 22050
	}
	return &demoSynth{sampleRate: sampleRate}
}

func (d *demoSynth) Synthesize(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, NewError(KindTimeout, "demo synthesis canceled", err)
	}

	payload := req.Payload()
	seconds := chunk.EstimateDuration(payload, req.SpeakingRate)
	if seconds < 0.2 {
		seconds = 0.2
	}
	if seconds > 10 {
		seconds = 10
	}

	data, err := renderTone(d.sampleRate, seconds)
	if err != nil {
		return nil, NewError(KindUnknown, "render demo tone", err)
	}

	return &Response{
		Audio:          data,
		Duration:       time.Duration(seconds * float64(time.Second)),
		CharacterCount: len(payload),
		ProcessingTime: time.Since(start),
	}, nil
}

func (d *demoSynth) ListVoices(_ context.Context, languageCode string) ([]Voice, error) {
	code := languageCode
	if code == "" {
		code = "en-US"
	}
	return []Voice{
		{Name: "demo-voice", LanguageCodes: []string{code}, Gender: "NEUTRAL", SampleRate: d.sampleRate},
	}, nil
}

// renderTone writes a mono 16-bit square wave WAV buffer. Output is
// always WAV regardless of the requested encoding, mirroring the limits
// of a placeholder signal.
func renderTone(sampleRate int, seconds float64) ([]byte, error) {
	frames := int(float64(sampleRate) * seconds)
	period := sampleRate / demoToneHz
	if period < 2 {
		period = 2
	}
	half := period / 2

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, frames),
	}
	gain := 0.3
	amplitude := int(float64(32767) * gain)
	for i := 0; i < frames; i++ {
		if i%period < half {
			buf.Data[i] = amplitude
		} else {
			buf.Data[i] = -amplitude
		}
	}

	var out seekableBuffer
	enc := wav.NewEncoder(&out, sampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// seekableBuffer satisfies wav.Encoder's io.WriteSeeker on an in-memory
// slice; the encoder seeks backwards to patch RIFF sizes on Close.
type seekableBuffer struct {
	data []byte
	pos  int
}

func (b *seekableBuffer) Write(p []byte) (int, error) {
	if b.pos+len(p) > len(b.data) {
		grown := make([]byte, b.pos+len(p))
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = b.pos + int(offset)
	case io.SeekEnd:
		next = len(b.data) + int(offset)
	default:
		return 0, errInvalidSeek
	}
	if next < 0 {
		return 0, errInvalidSeek
	}
	b.pos = next
	return int64(next), nil
}

func (b *seekableBuffer) Bytes() []byte { return b.data }
