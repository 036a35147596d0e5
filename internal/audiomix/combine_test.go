package audiomix

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/speechfoundry/chorus/internal/tts"
)

func newCombiner(t *testing.T) *Combiner {
	t.Helper()
	c, err := New("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new combiner: %v", err)
	}
	return c
}

// makeWAV renders a mono 16-bit file whose samples are all `value`.
func makeWAV(t *testing.T, sampleRate, frames, value int) []byte {
	t.Helper()
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, frames),
	}
	for i := range buf.Data {
		buf.Data[i] = value
	}
	out, err := encodeWAV(buf, 16)
	if err != nil {
		t.Fatalf("encode test wav: %v", err)
	}
	return out
}

func decodeWAV(t *testing.T, data []byte) *audio.IntBuffer {
	t.Helper()
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		t.Fatal("not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode wav: %v", err)
	}
	return buf
}

func TestCombineWAVPreservesOrderAndContent(t *testing.T) {
	a := makeWAV(t, 22050, 100, 1000)
	b := makeWAV(t, 22050, 50, -2000)

	out, err := newCombiner(t).Combine(context.Background(), [][]byte{a, b}, tts.EncodingLinear16)
	if err != nil {
		t.Fatalf("combine failed: %v", err)
	}

	buf := decodeWAV(t, out)
	if len(buf.Data) != 150 {
		t.Fatalf("expected 150 frames, got %d", len(buf.Data))
	}
	// A's content precedes B's with no corruption at the splice point.
	if buf.Data[0] != 1000 || buf.Data[99] != 1000 {
		t.Fatalf("first segment corrupted: %d %d", buf.Data[0], buf.Data[99])
	}
	if buf.Data[100] != -2000 || buf.Data[149] != -2000 {
		t.Fatalf("second segment corrupted: %d %d", buf.Data[100], buf.Data[149])
	}
}

func TestCombineSingleSegmentPassthrough(t *testing.T) {
	a := makeWAV(t, 22050, 10, 7)
	out, err := newCombiner(t).Combine(context.Background(), [][]byte{a}, tts.EncodingLinear16)
	if err != nil {
		t.Fatalf("combine failed: %v", err)
	}
	if !bytes.Equal(out, a) {
		t.Fatal("single segment should pass through unchanged")
	}
}

func TestCombineRejectsFormatMismatch(t *testing.T) {
	a := makeWAV(t, 22050, 10, 1)
	b := makeWAV(t, 44100, 10, 1)
	_, err := newCombiner(t).Combine(context.Background(), [][]byte{a, b}, tts.EncodingLinear16)
	if err == nil {
		t.Fatal("expected format mismatch error")
	}
	if tts.KindOf(err) != tts.KindCombine {
		t.Fatalf("expected combine kind, got %s", tts.KindOf(err))
	}
}

func TestCombineAllOrNothingOnBadSegment(t *testing.T) {
	a := makeWAV(t, 22050, 10, 1)
	garbage := []byte("definitely not audio")
	out, err := newCombiner(t).Combine(context.Background(), [][]byte{a, garbage}, tts.EncodingLinear16)
	if err == nil {
		t.Fatal("expected decode failure")
	}
	if out != nil {
		t.Fatal("no partial output may be emitted on failure")
	}
}

func TestCombineRejectsEmptyInputs(t *testing.T) {
	c := newCombiner(t)
	if _, err := c.Combine(context.Background(), nil, tts.EncodingLinear16); err == nil {
		t.Fatal("expected error for no segments")
	}
	a := makeWAV(t, 22050, 10, 1)
	if _, err := c.Combine(context.Background(), [][]byte{a, {}}, tts.EncodingLinear16); err == nil {
		t.Fatal("expected error for empty segment")
	}
}

func TestCombineUnsupportedEncoding(t *testing.T) {
	a := makeWAV(t, 22050, 10, 1)
	_, err := newCombiner(t).Combine(context.Background(), [][]byte{a, a}, tts.EncodingMulaw)
	if err == nil {
		t.Fatal("expected unsupported encoding error")
	}
	if tts.KindOf(err) != tts.KindCombine {
		t.Fatalf("expected combine kind, got %s", tts.KindOf(err))
	}
}

func TestCombineExternalUnavailable(t *testing.T) {
	c, err := New("definitely-not-a-real-binary-xyz", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new combiner: %v", err)
	}
	a := makeWAV(t, 22050, 10, 1)
	_, err = c.Combine(context.Background(), [][]byte{a, a}, tts.EncodingMP3)
	if err == nil {
		t.Fatal("expected failure when ffmpeg is unavailable")
	}
	if tts.KindOf(err) != tts.KindCombine {
		t.Fatalf("expected combine kind, got %s", tts.KindOf(err))
	}
}

func TestNewRejectsUnparsableCommand(t *testing.T) {
	_, err := New(`ffmpeg "unterminated`, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil {
		t.Fatal("expected parse error")
	}
}
