package tts

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/go-audio/wav"
)

func TestErrorKindExtraction(t *testing.T) {
	err := NewError(KindQuota, "quota exceeded", errors.New("rpc error"))
	if KindOf(err) != KindQuota {
		t.Fatalf("expected quota kind, got %s", KindOf(err))
	}
	wrapped := errors.Join(errors.New("outer"), err)
	if KindOf(wrapped) != KindQuota {
		t.Fatalf("expected kind to survive wrapping, got %s", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatal("expected unknown kind for plain error")
	}
}

func TestMockSynthRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockSynth().Synthesize(ctx, Request{Text: "hi"})
	if err == nil {
		t.Fatal("expected error from canceled context")
	}
	if KindOf(err) != KindTimeout {
		t.Fatalf("expected timeout kind, got %s", KindOf(err))
	}
}

func TestMockSynthFailureInjection(t *testing.T) {
	synth := NewMockSynth(WithMockFailure(func(req Request) error {
		if req.Text == "boom" {
			return NewError(KindAuth, "provider rejected credentials", nil)
		}
		return nil
	}))
	if _, err := synth.Synthesize(context.Background(), Request{Text: "ok"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := synth.Synthesize(context.Background(), Request{Text: "boom"})
	if KindOf(err) != KindAuth {
		t.Fatalf("expected auth kind, got %v", err)
	}
}

func TestDemoSynthProducesValidWav(t *testing.T) {
	synth := NewDemoSynth(22050)
	resp, err := synth.Synthesize(context.Background(), Request{Text: "a short demo sentence", SpeakingRate: 1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Audio) == 0 {
		t.Fatal("expected audio bytes")
	}
	dec := wav.NewDecoder(bytes.NewReader(resp.Audio))
	if !dec.IsValidFile() {
		t.Fatal("demo output is not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode demo wav: %v", err)
	}
	if buf.Format.SampleRate != 22050 || buf.Format.NumChannels != 1 {
		t.Fatalf("unexpected format: %+v", buf.Format)
	}
	if len(buf.Data) == 0 {
		t.Fatal("expected PCM frames")
	}
	peak := 0
	for _, s := range buf.Data {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	// Square tone at 30% of full scale.
	gain := 0.3
	if want := int(float64(32767) * gain); peak != want {
		t.Fatalf("peak sample = %d, want %d", peak, want)
	}
}

func TestCategorize(t *testing.T) {
	voices := []Voice{
		{Name: "en-US-Standard-C"},
		{Name: "en-US-Wavenet-D"},
		{Name: "en-US-Neural2-A"},
		{Name: "en-US-News-K"},
		{Name: "en-US-Studio-O"},
		{Name: "de-DE-Chirp-HD"},
	}
	cat := Categorize(voices)
	if cat.Total != 6 {
		t.Fatalf("expected total 6, got %d", cat.Total)
	}
	if len(cat.Wavenet) != 1 || len(cat.Neural2) != 1 || len(cat.News) != 1 || len(cat.Studio) != 1 {
		t.Fatalf("unexpected categorization: %+v", cat)
	}
	if len(cat.Standard) != 2 {
		t.Fatalf("expected 2 standard voices, got %d", len(cat.Standard))
	}
}

func TestEncodingHelpers(t *testing.T) {
	if EncodingMP3.Ext() != ".mp3" || EncodingLinear16.Ext() != ".wav" || EncodingOggOpus.Ext() != ".ogg" {
		t.Fatal("unexpected extensions")
	}
	if !EncodingMulaw.Valid() {
		t.Fatal("MULAW should be valid")
	}
	if Encoding("FLAC").Valid() {
		t.Fatal("FLAC should be invalid")
	}
}

func TestSeekableBufferPatchesHeader(t *testing.T) {
	var b seekableBuffer
	if _, err := b.Write([]byte("0123456789")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := b.Seek(2, 0); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if _, err := b.Write([]byte("AB")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got := string(b.Bytes()); got != "01AB456789" {
		t.Fatalf("unexpected buffer contents: %q", got)
	}
}
