package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/speech")
	t.Setenv("SPEECH_API_URL", "http://localhost:5000")
	t.Setenv("AUTH_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.SpeechAPI.Timeout != 60*time.Second {
		t.Errorf("timeout = %v", cfg.SpeechAPI.Timeout)
	}
	if cfg.History.Path != "history.db" {
		t.Errorf("history path = %q", cfg.History.Path)
	}
}

func TestLoadRejectsMissingDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SPEECH_API_URL", "http://localhost:5000")
	t.Setenv("AUTH_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoadRejectsMissingSpeechAPI(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/speech")
	t.Setenv("SPEECH_API_URL", "")
	t.Setenv("AUTH_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when no speech api is configured")
	}
}

func TestPartialS3ConfigIsRejected(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/speech")
	t.Setenv("SPEECH_API_URL", "http://localhost:5000")
	t.Setenv("AUTH_SECRET", "secret")
	t.Setenv("S3_ENDPOINT", "s3.example.com")
	t.Setenv("S3_ACCESS_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for partial s3 config")
	}
}

func TestSpeechAPITimeoutParsing(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/speech")
	t.Setenv("SPEECH_API_URL", "http://localhost:5000")
	t.Setenv("AUTH_SECRET", "secret")
	t.Setenv("SPEECH_API_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SpeechAPI.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", cfg.SpeechAPI.Timeout)
	}
}
