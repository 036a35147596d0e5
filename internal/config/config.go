package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind               string   `yaml:"bind"`
	Port               int      `yaml:"port"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
}

type TTSConfig struct {
	Mode            string  `yaml:"mode"` // google, demo, mock
	ProjectID       string  `yaml:"project_id"`
	CredentialsFile string  `yaml:"credentials_file"`
	Language        string  `yaml:"language"`
	Voice           string  `yaml:"voice"`
	Gender          string  `yaml:"gender"`
	Encoding        string  `yaml:"encoding"`
	SpeakingRate    float64 `yaml:"speaking_rate"`
	Pitch           float64 `yaml:"pitch"`
	SampleRate      int     `yaml:"sample_rate"`
	MaxTextLength   int     `yaml:"max_text_length"`
	CallTimeoutMS   int     `yaml:"call_timeout_ms"`
}

type BatchConfig struct {
	Workers           int  `yaml:"workers"`
	ChunkSize         int  `yaml:"chunk_size"`
	PreserveSentences bool `yaml:"preserve_sentences"`
	ContinueOnError   bool `yaml:"continue_on_error"`
}

type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
}

type StorageConfig struct {
	OutputDir string   `yaml:"output_dir"`
	S3        S3Config `yaml:"s3"`
}

type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
	MaxRequests   int    `yaml:"max_requests"`
}

type CombineConfig struct {
	FFmpegCommand string `yaml:"ffmpeg_command"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

type Config struct {
	ServiceName string          `yaml:"service_name"`
	Environment string          `yaml:"environment"`
	HTTP        HTTPConfig      `yaml:"http"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	TTS         TTSConfig       `yaml:"tts"`
	Batch       BatchConfig     `yaml:"batch"`
	Storage     StorageConfig   `yaml:"storage"`
	History     HistoryConfig   `yaml:"history"`
	Combine     CombineConfig   `yaml:"combine"`
	Bus         BusConfig       `yaml:"bus"`
}

func Default() Config {
	return Config{
		ServiceName: "chorus",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind:               "0.0.0.0",
			Port:               8080,
			AllowedOrigins:     []string{"*"},
			RateLimitPerMinute: 60,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		TTS: TTSConfig{
			Mode:          "google",
			Language:      "en-US",
			Gender:        "NEUTRAL",
			Encoding:      "MP3",
			SpeakingRate:  1.0,
			Pitch:         0.0,
			SampleRate:    22050,
			MaxTextLength: 5000,
			CallTimeoutMS: 30000,
		},
		Batch: BatchConfig{
			Workers:           3,
			ChunkSize:         4500,
			PreserveSentences: true,
			ContinueOnError:   true,
		},
		Storage: StorageConfig{
			OutputDir: "./tts-output",
			S3: S3Config{
				Prefix: "tts-audio",
			},
		},
		History: HistoryConfig{
			Enabled:       true,
			Path:          "./data/chorus-history.db",
			RetentionDays: 30,
			MaxRequests:   10000,
		},
		Combine: CombineConfig{
			FFmpegCommand: "ffmpeg",
		},
		Bus: BusConfig{
			Enabled:        false,
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
	}
}

func Load(path string) (Config, error) {
	return LoadWith(path, nil)
}

// LoadWith loads configuration and then applies caller overrides before
// validation. Used by the CLI to layer flags over file and env settings.
func LoadWith(path string, apply func(*Config)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if apply != nil {
		apply(&cfg)
	}
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.ServiceName, "CHORUS_SERVICE_NAME")
	overrideString(&cfg.Environment, "CHORUS_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "CHORUS_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "CHORUS_HTTP_PORT")
	overrideStringSlice(&cfg.HTTP.AllowedOrigins, "CHORUS_HTTP_ALLOWED_ORIGINS")
	overrideInt(&cfg.HTTP.RateLimitPerMinute, "CHORUS_HTTP_RATE_LIMIT_PER_MINUTE")
	overrideString(&cfg.Telemetry.LogLevel, "CHORUS_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "CHORUS_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "CHORUS_TELEMETRY_OTLP_INSECURE")
	overrideString(&cfg.TTS.Mode, "CHORUS_TTS_MODE")
	overrideString(&cfg.TTS.ProjectID, "CHORUS_TTS_PROJECT_ID")
	overrideString(&cfg.TTS.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	overrideString(&cfg.TTS.Language, "CHORUS_TTS_LANGUAGE")
	overrideString(&cfg.TTS.Voice, "CHORUS_TTS_VOICE")
	overrideString(&cfg.TTS.Gender, "CHORUS_TTS_GENDER")
	overrideString(&cfg.TTS.Encoding, "CHORUS_TTS_ENCODING")
	overrideFloat(&cfg.TTS.SpeakingRate, "CHORUS_TTS_SPEAKING_RATE")
	overrideFloat(&cfg.TTS.Pitch, "CHORUS_TTS_PITCH")
	overrideInt(&cfg.TTS.SampleRate, "CHORUS_TTS_SAMPLE_RATE")
	overrideInt(&cfg.TTS.MaxTextLength, "CHORUS_TTS_MAX_TEXT_LENGTH")
	overrideInt(&cfg.TTS.CallTimeoutMS, "CHORUS_TTS_CALL_TIMEOUT_MS")
	overrideInt(&cfg.Batch.Workers, "CHORUS_BATCH_WORKERS")
	overrideInt(&cfg.Batch.ChunkSize, "CHORUS_BATCH_CHUNK_SIZE")
	overrideBool(&cfg.Batch.PreserveSentences, "CHORUS_BATCH_PRESERVE_SENTENCES")
	overrideBool(&cfg.Batch.ContinueOnError, "CHORUS_BATCH_CONTINUE_ON_ERROR")
	overrideString(&cfg.Storage.OutputDir, "CHORUS_STORAGE_OUTPUT_DIR")
	overrideBool(&cfg.Storage.S3.Enabled, "CHORUS_STORAGE_S3_ENABLED")
	overrideString(&cfg.Storage.S3.Endpoint, "CHORUS_STORAGE_S3_ENDPOINT")
	overrideString(&cfg.Storage.S3.Bucket, "CHORUS_STORAGE_S3_BUCKET")
	overrideString(&cfg.Storage.S3.Region, "CHORUS_STORAGE_S3_REGION")
	overrideString(&cfg.Storage.S3.AccessKey, "CHORUS_STORAGE_S3_ACCESS_KEY")
	overrideString(&cfg.Storage.S3.SecretKey, "CHORUS_STORAGE_S3_SECRET_KEY")
	overrideString(&cfg.Storage.S3.Prefix, "CHORUS_STORAGE_S3_PREFIX")
	overrideBool(&cfg.History.Enabled, "CHORUS_HISTORY_ENABLED")
	overrideString(&cfg.History.Path, "CHORUS_HISTORY_PATH")
	overrideInt(&cfg.History.RetentionDays, "CHORUS_HISTORY_RETENTION_DAYS")
	overrideInt(&cfg.History.MaxRequests, "CHORUS_HISTORY_MAX_REQUESTS")
	overrideString(&cfg.Combine.FFmpegCommand, "CHORUS_COMBINE_FFMPEG_COMMAND")
	overrideBool(&cfg.Bus.Enabled, "CHORUS_BUS_ENABLED")
	overrideStringSlice(&cfg.Bus.Servers, "CHORUS_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "CHORUS_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "CHORUS_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "CHORUS_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "CHORUS_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "CHORUS_BUS_CONNECT_TIMEOUT_MS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

var languageCodePattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Z]{2}|-XA)?$`)

// ValidLanguageCode reports whether code looks like a language tag the
// synthesis provider accepts, e.g. "en-US" or "ar-XA".
func ValidLanguageCode(code string) bool {
	return languageCodePattern.MatchString(code)
}

func validate(cfg Config) error {
	if cfg.ServiceName == "" {
		return errors.New("service_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.HTTP.RateLimitPerMinute <= 0 {
		return errors.New("http.rate_limit_per_minute must be positive")
	}
	switch cfg.TTS.Mode {
	case "google", "demo", "mock":
	default:
		return errors.New("tts.mode must be one of google|demo|mock")
	}
	if cfg.TTS.Mode == "google" && cfg.TTS.ProjectID == "" {
		return errors.New("tts.project_id must be set when mode=google")
	}
	if !ValidLanguageCode(cfg.TTS.Language) {
		return errors.New("tts.language must be a valid language code, e.g. en-US")
	}
	switch cfg.TTS.Gender {
	case "NEUTRAL", "MALE", "FEMALE":
	default:
		return errors.New("tts.gender must be one of NEUTRAL|MALE|FEMALE")
	}
	switch cfg.TTS.Encoding {
	case "MP3", "LINEAR16", "OGG_OPUS", "MULAW", "ALAW":
	default:
		return errors.New("tts.encoding must be one of MP3|LINEAR16|OGG_OPUS|MULAW|ALAW")
	}
	if cfg.TTS.SpeakingRate < 0.25 || cfg.TTS.SpeakingRate > 4.0 {
		return errors.New("tts.speaking_rate must be between 0.25 and 4.0")
	}
	if cfg.TTS.Pitch < -20.0 || cfg.TTS.Pitch > 20.0 {
		return errors.New("tts.pitch must be between -20.0 and 20.0")
	}
	if cfg.TTS.SampleRate <= 0 {
		return errors.New("tts.sample_rate must be positive")
	}
	if cfg.TTS.MaxTextLength <= 0 {
		return errors.New("tts.max_text_length must be positive")
	}
	if cfg.TTS.CallTimeoutMS <= 0 {
		return errors.New("tts.call_timeout_ms must be positive")
	}
	if cfg.Batch.Workers <= 0 {
		return errors.New("batch.workers must be >= 1")
	}
	if cfg.Batch.ChunkSize <= 0 {
		return errors.New("batch.chunk_size must be positive")
	}
	if cfg.Batch.ChunkSize > cfg.TTS.MaxTextLength {
		return errors.New("batch.chunk_size must not exceed tts.max_text_length")
	}
	if cfg.Storage.OutputDir == "" {
		return errors.New("storage.output_dir must not be empty")
	}
	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Endpoint == "" {
			return errors.New("storage.s3.endpoint must be set when s3 is enabled")
		}
		if cfg.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket must be set when s3 is enabled")
		}
	}
	if cfg.History.Enabled {
		if cfg.History.Path == "" {
			return errors.New("history.path must not be empty when history is enabled")
		}
		if cfg.History.RetentionDays < 0 {
			return errors.New("history.retention_days must be >= 0")
		}
	}
	if cfg.Bus.Enabled && len(cfg.Bus.Servers) == 0 {
		return errors.New("bus.servers must not be empty when bus is enabled")
	}
	return nil
}
