// Package config loads the chatbot settings from flags, environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Session backings.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

var ErrMissingAPIKey = errors.New("config: gemini_api_key is required (set GEMINI_API_KEY)")

type Config struct {
	Port string

	GeminiAPIKey      string
	Model             string
	SystemInstruction string
	MaxToolTurns      int
	Temperature       float32
	TopK              float32
	TopP              float32
	MaxOutputTokens   int32

	OpenWeatherAPIKey string
	OpenWeatherURL    string
	TimeZone          string
	HTTPTimeout       time.Duration

	MongoURI string
	MongoDB  string

	SessionBackend    string
	SQLitePath        string
	SessionTTL        time.Duration
	SessionMaxEntries int

	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"port":                "3000",
	"model":               "gemini-2.5-flash",
	"max_tool_turns":      3,
	"temperature":         0.7,
	"top_k":               40,
	"top_p":               0.95,
	"max_output_tokens":   1024,
	"openweather_url":     "https://api.openweathermap.org/data/2.5/weather",
	"timezone":            "America/Sao_Paulo",
	"http_timeout":        10 * time.Second,
	"mongo_uri":           "mongodb://localhost:27017",
	"mongo_db":            "chatbot",
	"session_backend":     BackendMemory,
	"sqlite_path":         "data/sessions.db",
	"session_ttl":         2 * time.Hour,
	"session_max_entries": 1000,
	"log_level":           "info",
	"log_format":          "text",
}

// Environment names accepted besides the upper-cased key.
var aliases = map[string][]string{
	"model":     {"GEMINI_MODEL", "MODEL"},
	"port":      {"PORT", "HTTP_PORT"},
	"mongo_uri": {"MONGO_URI", "MONGODB_URI"},
	"mongo_db":  {"MONGO_DB", "MONGODB_DB"},
}

// Load reads settings into a Config. Flags bound to v take precedence over
// the environment, which takes precedence over configFile (if not empty).
func Load(v *viper.Viper, configFile string) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	for key, envs := range aliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Port:              v.GetString("port"),
		GeminiAPIKey:      v.GetString("gemini_api_key"),
		Model:             v.GetString("model"),
		SystemInstruction: v.GetString("system_instruction"),
		MaxToolTurns:      v.GetInt("max_tool_turns"),
		Temperature:       float32(v.GetFloat64("temperature")),
		TopK:              float32(v.GetFloat64("top_k")),
		TopP:              float32(v.GetFloat64("top_p")),
		MaxOutputTokens:   v.GetInt32("max_output_tokens"),
		OpenWeatherAPIKey: v.GetString("openweather_api_key"),
		OpenWeatherURL:    v.GetString("openweather_url"),
		TimeZone:          v.GetString("timezone"),
		HTTPTimeout:       v.GetDuration("http_timeout"),
		MongoURI:          v.GetString("mongo_uri"),
		MongoDB:           v.GetString("mongo_db"),
		SessionBackend:    strings.ToLower(v.GetString("session_backend")),
		SQLitePath:        v.GetString("sqlite_path"),
		SessionTTL:        v.GetDuration("session_ttl"),
		SessionMaxEntries: v.GetInt("session_max_entries"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         strings.ToLower(v.GetString("log_format")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Model == "" {
		return errors.New("config: model is required")
	}

	switch c.SessionBackend {
	case BackendMemory, BackendMongo:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("config: sqlite_path is required for the sqlite session backend")
		}
	default:
		return fmt.Errorf("config: unknown session_backend %q (valid: memory, mongo, sqlite)", c.SessionBackend)
	}

	if c.MaxToolTurns < 1 {
		return fmt.Errorf("config: max_tool_turns must be at least 1, got %d", c.MaxToolTurns)
	}
	if c.MaxOutputTokens < 0 {
		return fmt.Errorf("config: max_output_tokens must not be negative, got %d", c.MaxOutputTokens)
	}
	if c.SessionTTL < 0 || c.SessionMaxEntries < 0 {
		return errors.New("config: session_ttl and session_max_entries must not be negative")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config: unknown log_format %q (valid: text, json)", c.LogFormat)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("config: timezone: %w", err)
	}

	return nil
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
