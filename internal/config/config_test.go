package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "3000" || cfg.Addr() != ":3000" {
		t.Errorf("port = %q, addr = %q", cfg.Port, cfg.Addr())
	}
	if cfg.Model != "gemini-2.5-flash" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.MaxToolTurns != 3 {
		t.Errorf("max tool turns = %d", cfg.MaxToolTurns)
	}
	if cfg.Temperature != 0.7 || cfg.TopK != 40 || cfg.TopP != 0.95 {
		t.Errorf("sampling = %v/%v/%v", cfg.Temperature, cfg.TopK, cfg.TopP)
	}
	if cfg.SessionBackend != BackendMemory || cfg.SessionTTL != 2*time.Hour {
		t.Errorf("session = %s/%v", cfg.SessionBackend, cfg.SessionTTL)
	}
	if cfg.TimeZone != "America/Sao_Paulo" {
		t.Errorf("timezone = %q", cfg.TimeZone)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	t.Setenv("PORT", "8080")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("SESSION_BACKEND", "SQLite")
	t.Setenv("MAX_TOOL_TURNS", "5")
	t.Setenv("SESSION_TTL", "30m")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.MongoURI != "mongodb://db:27017" {
		t.Errorf("mongo uri = %q", cfg.MongoURI)
	}
	if cfg.SessionBackend != BackendSQLite {
		t.Errorf("backend = %q", cfg.SessionBackend)
	}
	if cfg.MaxToolTurns != 5 || cfg.SessionTTL != 30*time.Minute {
		t.Errorf("turns = %d, ttl = %v", cfg.MaxToolTurns, cfg.SessionTTL)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("TOP_K", "20")

	path := filepath.Join(t.TempDir(), "chatbot.yaml")
	content := "model: gemini-file\ntop_k: 10\nlog_format: json\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Model != "gemini-file" || cfg.LogFormat != "json" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.TopK != 20 {
		t.Errorf("environment should override the file: top_k = %v", cfg.TopK)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"SESSION_BACKEND": "redis"}},
		{name: "zero tool turns", env: map[string]string{"MAX_TOOL_TURNS": "0"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "bad log format", env: map[string]string{"LOG_FORMAT": "xml"}},
		{name: "bad timezone", env: map[string]string{"TIMEZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "test-key")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(viper.New(), ""); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load(viper.New(), "")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("error = %v, want ErrMissingAPIKey", err)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"", false}, {"INFO", false}, {" debug ", false}, {"warning", false}, {"error", false}, {"trace", true},
	}
	for _, tt := range tests {
		if _, err := ParseLogLevel(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := NewLogger(os.Stderr, "debug", "json"); err != nil {
		t.Errorf("json logger: %v", err)
	}
	if _, err := NewLogger(os.Stderr, "info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
