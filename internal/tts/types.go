package tts

import (
	"context"
	"time"
)

// Encoding identifies the audio container/codec requested from the provider.
type Encoding string

const (
	EncodingMP3      Encoding = "MP3"
	EncodingLinear16 Encoding = "LINEAR16"
	EncodingOggOpus  Encoding = "OGG_OPUS"
	EncodingMulaw    Encoding = "MULAW"
	EncodingAlaw     Encoding = "ALAW"
)

// Ext returns the conventional file extension for the encoding.
func (e Encoding) Ext() string {
	switch e {
	case EncodingMP3:
		return ".mp3"
	case EncodingOggOpus:
		return ".ogg"
	default:
		return ".wav"
	}
}

// ContentType returns the MIME type for the encoding.
func (e Encoding) ContentType() string {
	switch e {
	case EncodingMP3:
		return "audio/mpeg"
	case EncodingOggOpus:
		return "audio/ogg"
	default:
		return "audio/wav"
	}
}

// Valid reports whether the encoding is one the provider understands.
func (e Encoding) Valid() bool {
	switch e {
	case EncodingMP3, EncodingLinear16, EncodingOggOpus, EncodingMulaw, EncodingAlaw:
		return true
	}
	return false
}

// Request describes one synthesis call. Text and SSML are mutually
// exclusive; when SSML is set it is passed to the provider as-is.
type Request struct {
	Text         string
	SSML         string
	LanguageCode string
	VoiceName    string
	Gender       string
	Encoding     Encoding
	SpeakingRate float64
	Pitch        float64
	SampleRate   int
}

// Payload returns whichever input variant is populated.
func (r Request) Payload() string {
	if r.SSML != "" {
		return r.SSML
	}
	return r.Text
}

// Response carries the synthesized audio and call metadata.
type Response struct {
	Audio          []byte
	Duration       time.Duration
	CharacterCount int
	ProcessingTime time.Duration
}

// Voice describes one provider voice.
type Voice struct {
	Name          string   `json:"name"`
	LanguageCodes []string `json:"language_codes"`
	Gender        string   `json:"gender"`
	SampleRate    int      `json:"natural_sample_rate_hertz"`
}

// Synthesizer is the contract for producing audio from text or SSML.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (*Response, error)
	ListVoices(ctx context.Context, languageCode string) ([]Voice, error)
}
