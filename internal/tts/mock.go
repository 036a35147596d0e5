package tts

import (
	"context"
	"time"

	"github.com/speechfoundry/chorus/internal/chunk"
)

// mockSynth returns canned audio after a short delay. Used in tests and
// tts.mode=mock.
type mockSynth struct {
	delay time.Duration
	fail  func(req Request) error
}

// MockOption adjusts mock behavior.
type MockOption func(*mockSynth)

// WithMockDelay sets the simulated synthesis latency.
func WithMockDelay(d time.Duration) MockOption {
	return func(m *mockSynth) { m.delay = d }
}

// WithMockFailure injects a failure decision per request.
func WithMockFailure(fn func(req Request) error) MockOption {
	return func(m *mockSynth) { m.fail = fn }
}

func NewMockSynth(opts ...MockOption) Synthesizer {
	m := &mockSynth{delay: 5 * time.Millisecond}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *mockSynth) Synthesize(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	select {
	case <-ctx.Done():
		return nil, NewError(KindTimeout, "mock synthesis canceled", ctx.Err())
	case <-time.After(m.delay):
	}
	if m.fail != nil {
		if err := m.fail(req); err != nil {
			return nil, err
		}
	}
	payload := req.Payload()
	return &Response{
		Audio:          []byte(payload),
		Duration:       time.Duration(chunk.EstimateDuration(payload, req.SpeakingRate) * float64(time.Second)),
		CharacterCount: len(payload),
		ProcessingTime: time.Since(start),
	}, nil
}

func (m *mockSynth) ListVoices(_ context.Context, languageCode string) ([]Voice, error) {
	code := languageCode
	if code == "" {
		code = "en-US"
	}
	return []Voice{
		{Name: "en-US-Standard-C", LanguageCodes: []string{code}, Gender: "FEMALE", SampleRate: 24000},
		{Name: "en-US-Wavenet-D", LanguageCodes: []string{code}, Gender: "MALE", SampleRate: 24000},
		{Name: "en-US-Neural2-A", LanguageCodes: []string{code}, Gender: "NEUTRAL", SampleRate: 24000},
	}, nil
}
