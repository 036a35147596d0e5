package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/speechfoundry/chorus/internal/audiomix"
	"github.com/speechfoundry/chorus/internal/config"
	"github.com/speechfoundry/chorus/internal/history"
	"github.com/speechfoundry/chorus/internal/speech"
	"github.com/speechfoundry/chorus/internal/storage"
	"github.com/speechfoundry/chorus/internal/tts"
)

var version = "0.1.0-dev"

var (
	flagConfig   string
	flagOutput   string
	flagMode     string
	flagProject  string
	flagLanguage string
	flagVoice    string
	flagGender   string
	flagEncoding string
	flagRate     float64
	flagPitch    float64
	flagVerbose  bool

	flagWorkers     int
	flagStopOnError bool
	// set by the document command when --preserve-sentences is given
	// explicitly, so an untouched flag never overrides the config file
	overridePreserve *bool
)

var rootCmd = &cobra.Command{
	Use:           "chorus",
	Short:         "Batch text-to-speech client for Google Cloud TTS",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `chorus converts text, SSML, and whole documents into audio using
Google Cloud Text-to-Speech. Long documents are split into chunks,
synthesized in parallel, and optionally combined into a single file.`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "Path to configuration file")
	pf.StringVarP(&flagOutput, "output", "o", "", "Output directory for audio files")
	pf.StringVar(&flagMode, "mode", "", "Synthesizer mode: google, demo, or mock")
	pf.StringVar(&flagProject, "project", "", "Google Cloud project ID")
	pf.StringVarP(&flagLanguage, "language", "l", "", "Language code, e.g. en-US")
	pf.StringVar(&flagVoice, "voice", "", "Voice name, e.g. en-US-Neural2-A")
	pf.StringVar(&flagGender, "gender", "", "SSML gender: NEUTRAL, MALE, or FEMALE")
	pf.StringVarP(&flagEncoding, "encoding", "e", "", "Audio encoding: MP3, LINEAR16, OGG_OPUS, MULAW, ALAW")
	pf.Float64Var(&flagRate, "rate", 0, "Speaking rate (0.25 to 4.0)")
	pf.Float64Var(&flagPitch, "pitch", 0, "Pitch (-20.0 to 20.0)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig layers flags over the config file and environment.
func loadConfig() (config.Config, error) {
	_ = godotenv.Load()
	return config.LoadWith(flagConfig, func(cfg *config.Config) {
		if flagOutput != "" {
			cfg.Storage.OutputDir = flagOutput
		}
		if flagMode != "" {
			cfg.TTS.Mode = flagMode
		}
		if flagProject != "" {
			cfg.TTS.ProjectID = flagProject
		}
		if flagLanguage != "" {
			cfg.TTS.Language = flagLanguage
		}
		if flagVoice != "" {
			cfg.TTS.Voice = flagVoice
		}
		if flagGender != "" {
			cfg.TTS.Gender = flagGender
		}
		if flagEncoding != "" {
			cfg.TTS.Encoding = flagEncoding
		}
		if flagRate != 0 {
			cfg.TTS.SpeakingRate = flagRate
		}
		if flagPitch != 0 {
			cfg.TTS.Pitch = flagPitch
		}
		if flagChunkSize > 0 {
			cfg.Batch.ChunkSize = flagChunkSize
		}
		if flagWorkers > 0 {
			cfg.Batch.Workers = flagWorkers
		}
		if flagStopOnError {
			cfg.Batch.ContinueOnError = false
		}
		if overridePreserve != nil {
			cfg.Batch.PreserveSentences = *overridePreserve
		}
	})
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newService builds the synthesis pipeline for one CLI invocation. The
// returned cleanup must run before exit.
func newService(ctx context.Context) (*speech.Service, config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, nil, err
	}
	log := newLogger()

	var synth tts.Synthesizer
	switch cfg.TTS.Mode {
	case "demo":
		fmt.Fprintln(os.Stderr, "warning: demo mode produces a placeholder tone, not real speech")
		synth = tts.NewDemoSynth(cfg.TTS.SampleRate)
	case "mock":
		synth = tts.NewMockSynth()
	default:
		synth, err = tts.NewGoogleSynth(ctx, cfg.TTS, log)
		if err != nil {
			return nil, cfg, nil, err
		}
	}

	local, err := storage.NewLocal(cfg.Storage.OutputDir, log)
	if err != nil {
		return nil, cfg, nil, err
	}
	var remote storage.Store
	if cfg.Storage.S3.Enabled {
		s3, err := storage.NewS3(ctx, cfg.Storage.S3, log)
		if err != nil {
			return nil, cfg, nil, err
		}
		remote = s3
	}

	hist, err := history.Open(ctx, cfg.History, log)
	if err != nil {
		return nil, cfg, nil, err
	}

	combiner, err := audiomix.New(cfg.Combine.FFmpegCommand, log)
	if err != nil {
		hist.Close()
		return nil, cfg, nil, err
	}

	cleanup := func() {
		hist.Close()
		if c, ok := synth.(io.Closer); ok {
			_ = c.Close()
		}
	}
	svc := speech.New(cfg, synth, storage.NewComposite(local, remote), hist, combiner, nil, log)
	return svc, cfg, cleanup, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
