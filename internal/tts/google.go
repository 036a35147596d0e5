package tts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/speechfoundry/chorus/internal/chunk"
	"github.com/speechfoundry/chorus/internal/config"
)

// googleSynth adapts the Google Cloud Text-to-Speech API.
type googleSynth struct {
	client *texttospeech.Client
	cfg    config.TTSConfig
	log    *slog.Logger
}

// NewGoogleSynth dials the Cloud TTS API. Credentials come from
// cfg.CredentialsFile when set, otherwise application default credentials.
func NewGoogleSynth(ctx context.Context, cfg config.TTSConfig, log *slog.Logger) (Synthesizer, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create texttospeech client: %w", err)
	}
	return &googleSynth{
		client: client,
		cfg:    cfg,
		log:    log.With(slog.String("component", "tts-google")),
	}, nil
}

func (g *googleSynth) Synthesize(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	input := &texttospeechpb.SynthesisInput{}
	if req.SSML != "" {
		input.InputSource = &texttospeechpb.SynthesisInput_Ssml{Ssml: req.SSML}
	} else {
		input.InputSource = &texttospeechpb.SynthesisInput_Text{Text: req.Text}
	}

	pbReq := &texttospeechpb.SynthesizeSpeechRequest{
		Input: input,
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: req.LanguageCode,
			Name:         req.VoiceName,
			SsmlGender:   mapGender(req.Gender),
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   mapEncoding(req.Encoding),
			SpeakingRate:    req.SpeakingRate,
			Pitch:           req.Pitch,
			SampleRateHertz: int32(req.SampleRate),
		},
	}

	resp, err := g.client.SynthesizeSpeech(ctx, pbReq)
	if err != nil {
		return nil, classifyRPC(err)
	}

	payload := req.Payload()
	estimated := chunk.EstimateDuration(payload, req.SpeakingRate)
	g.log.Debug("synthesis complete",
		slog.Int("characters", len(payload)),
		slog.Int("bytes", len(resp.AudioContent)))

	return &Response{
		Audio:          resp.AudioContent,
		Duration:       time.Duration(estimated * float64(time.Second)),
		CharacterCount: len(payload),
		ProcessingTime: time.Since(start),
	}, nil
}

func (g *googleSynth) ListVoices(ctx context.Context, languageCode string) ([]Voice, error) {
	resp, err := g.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: languageCode})
	if err != nil {
		return nil, classifyRPC(err)
	}
	voices := make([]Voice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		voices = append(voices, Voice{
			Name:          v.Name,
			LanguageCodes: v.LanguageCodes,
			Gender:        v.SsmlGender.String(),
			SampleRate:    int(v.NaturalSampleRateHertz),
		})
	}
	return voices, nil
}

// classifyRPC maps gRPC status codes onto the closed failure taxonomy so
// callers never have to inspect provider-specific errors.
func classifyRPC(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return NewError(KindUnknown, "synthesis call failed", err)
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return NewError(KindAuth, "provider rejected credentials", err)
	case codes.ResourceExhausted:
		return NewError(KindQuota, "provider quota exceeded", err)
	case codes.InvalidArgument:
		return NewError(KindInvalidInput, "provider rejected request", err)
	case codes.DeadlineExceeded:
		return NewError(KindTimeout, "synthesis call timed out", err)
	case codes.Canceled:
		return NewError(KindTimeout, "synthesis call canceled", err)
	default:
		return NewError(KindUnknown, "synthesis call failed", err)
	}
}

func mapGender(gender string) texttospeechpb.SsmlVoiceGender {
	switch gender {
	case "MALE":
		return texttospeechpb.SsmlVoiceGender_MALE
	case "FEMALE":
		return texttospeechpb.SsmlVoiceGender_FEMALE
	default:
		return texttospeechpb.SsmlVoiceGender_NEUTRAL
	}
}

func mapEncoding(enc Encoding) texttospeechpb.AudioEncoding {
	switch enc {
	case EncodingLinear16:
		return texttospeechpb.AudioEncoding_LINEAR16
	case EncodingOggOpus:
		return texttospeechpb.AudioEncoding_OGG_OPUS
	case EncodingMulaw:
		return texttospeechpb.AudioEncoding_MULAW
	case EncodingAlaw:
		return texttospeechpb.AudioEncoding_ALAW
	default:
		return texttospeechpb.AudioEncoding_MP3
	}
}

// Close releases the underlying gRPC connection.
func (g *googleSynth) Close() error { return g.client.Close() }
