package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CHORUS_TTS_MODE", "mock")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Batch.Workers != 3 {
		t.Fatalf("expected default workers 3, got %d", cfg.Batch.Workers)
	}
	if cfg.Batch.ChunkSize != 4500 {
		t.Fatalf("expected default chunk size 4500, got %d", cfg.Batch.ChunkSize)
	}
	if cfg.TTS.Encoding != "MP3" {
		t.Fatalf("expected default encoding MP3, got %s", cfg.TTS.Encoding)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHORUS_TTS_MODE", "demo")
	t.Setenv("CHORUS_TTS_LANGUAGE", "de-DE")
	t.Setenv("CHORUS_TTS_ENCODING", "LINEAR16")
	t.Setenv("CHORUS_TTS_SPEAKING_RATE", "1.5")
	t.Setenv("CHORUS_BATCH_WORKERS", "8")
	t.Setenv("CHORUS_BATCH_CONTINUE_ON_ERROR", "false")
	t.Setenv("CHORUS_HTTP_ALLOWED_ORIGINS", "https://one.example, https://two.example")
	t.Setenv("CHORUS_STORAGE_S3_ENABLED", "true")
	t.Setenv("CHORUS_STORAGE_S3_ENDPOINT", "s3.example.com")
	t.Setenv("CHORUS_STORAGE_S3_BUCKET", "audio")
	t.Setenv("CHORUS_HISTORY_PATH", "./tmp.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TTS.Mode != "demo" {
		t.Fatalf("expected mode override, got %s", cfg.TTS.Mode)
	}
	if cfg.TTS.Language != "de-DE" {
		t.Fatalf("expected language override, got %s", cfg.TTS.Language)
	}
	if cfg.TTS.SpeakingRate != 1.5 {
		t.Fatalf("expected speaking rate 1.5, got %v", cfg.TTS.SpeakingRate)
	}
	if cfg.Batch.Workers != 8 {
		t.Fatalf("expected workers 8, got %d", cfg.Batch.Workers)
	}
	if cfg.Batch.ContinueOnError {
		t.Fatal("expected continue_on_error override false")
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.Storage.S3.Bucket != "audio" {
		t.Fatalf("expected bucket override, got %s", cfg.Storage.S3.Bucket)
	}
	if cfg.History.Path != "./tmp.db" {
		t.Fatalf("expected history path override, got %s", cfg.History.Path)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"bad mode", map[string]string{"CHORUS_TTS_MODE": "espeak"}},
		{"google without project", map[string]string{"CHORUS_TTS_MODE": "google"}},
		{"bad language", map[string]string{"CHORUS_TTS_MODE": "mock", "CHORUS_TTS_LANGUAGE": "english"}},
		{"bad encoding", map[string]string{"CHORUS_TTS_MODE": "mock", "CHORUS_TTS_ENCODING": "FLAC"}},
		{"rate out of range", map[string]string{"CHORUS_TTS_MODE": "mock", "CHORUS_TTS_SPEAKING_RATE": "9.0"}},
		{"pitch out of range", map[string]string{"CHORUS_TTS_MODE": "mock", "CHORUS_TTS_PITCH": "50"}},
		{"zero workers", map[string]string{"CHORUS_TTS_MODE": "mock", "CHORUS_BATCH_WORKERS": "0"}},
		{"chunk exceeds max", map[string]string{"CHORUS_TTS_MODE": "mock", "CHORUS_BATCH_CHUNK_SIZE": "6000"}},
		{"s3 without endpoint", map[string]string{"CHORUS_TTS_MODE": "mock", "CHORUS_STORAGE_S3_ENABLED": "true", "CHORUS_STORAGE_S3_BUCKET": "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidLanguageCode(t *testing.T) {
	valid := []string{"en-US", "de-DE", "ja-JP", "ar-XA", "fil-PH", "en"}
	for _, code := range valid {
		if !ValidLanguageCode(code) {
			t.Errorf("expected %q to be valid", code)
		}
	}
	invalid := []string{"", "english", "EN-us", "en_US", "e"}
	for _, code := range invalid {
		if ValidLanguageCode(code) {
			t.Errorf("expected %q to be invalid", code)
		}
	}
}
