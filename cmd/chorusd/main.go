package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/speechfoundry/chorus/internal/audiomix"
	"github.com/speechfoundry/chorus/internal/bus"
	"github.com/speechfoundry/chorus/internal/config"
	"github.com/speechfoundry/chorus/internal/history"
	"github.com/speechfoundry/chorus/internal/runtime"
	"github.com/speechfoundry/chorus/internal/server"
	"github.com/speechfoundry/chorus/internal/speech"
	"github.com/speechfoundry/chorus/internal/storage"
	"github.com/speechfoundry/chorus/internal/tts"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "chorus.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Telemetry.LogLevel)}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	synth, err := newSynthesizer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init synthesizer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeQuietly(synth)

	local, err := storage.NewLocal(cfg.Storage.OutputDir, logger)
	if err != nil {
		logger.Error("failed to init local storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	var remote storage.Store
	if cfg.Storage.S3.Enabled {
		s3, err := storage.NewS3(ctx, cfg.Storage.S3, logger)
		if err != nil {
			logger.Error("failed to init s3 storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
		remote = s3
	}

	hist, err := history.Open(ctx, cfg.History, logger)
	if err != nil {
		logger.Error("failed to open history store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer hist.Close()

	combiner, err := audiomix.New(cfg.Combine.FFmpegCommand, logger)
	if err != nil {
		logger.Error("failed to init combiner", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var busClient *bus.Client
	if cfg.Bus.Enabled {
		busClient, err = bus.Connect(cfg.Bus, logger)
		if err != nil {
			logger.Error("failed to connect to bus", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer busClient.Close()
	}

	svc := speech.New(cfg, synth, storage.NewComposite(local, remote), hist, combiner, busClient, logger)
	server.Version = version
	api := server.New(cfg, svc, logger)

	rt := runtime.New(cfg, api, logger)
	if err := rt.Start(ctx); err != nil {
		logger.Error("runtime exited with error", slog.String("error", err.Error()))
		time.Sleep(1 * time.Second)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func newSynthesizer(ctx context.Context, cfg config.Config, logger *slog.Logger) (tts.Synthesizer, error) {
	switch cfg.TTS.Mode {
	case "demo":
		logger.Warn("using demo tone synthesizer; no provider calls will be made")
		return tts.NewDemoSynth(cfg.TTS.SampleRate), nil
	case "mock":
		return tts.NewMockSynth(), nil
	default:
		return tts.NewGoogleSynth(ctx, cfg.TTS, logger)
	}
}

func closeQuietly(v any) {
	if c, ok := v.(io.Closer); ok {
		_ = c.Close()
	}
}

func logLevel(raw string) slog.Level {
	switch raw {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
