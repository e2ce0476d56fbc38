package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/tidwall/gjson"
)

// WeatherTool is the name the model uses to ask for the current weather.
const WeatherTool = "getWeather"

// DefaultWeatherURL is the OpenWeather current-conditions endpoint.
const DefaultWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

var (
	// ErrWeatherUnavailable is what the model sees for any lookup failure;
	// the underlying cause is only logged.
	ErrWeatherUnavailable = errors.New("Não foi possível encontrar o clima para essa cidade.")

	errMissingLocation = errors.New("Nome da cidade não fornecido.")
)

// WeatherConfig configures the OpenWeather-backed tool.
type WeatherConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewWeather returns the getWeather tool.
func NewWeather(cfg WeatherConfig) *Declaration {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultWeatherURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Declaration{
		Name:        WeatherTool,
		Description: "Obtém o clima atual para uma cidade específica.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"location": {
					Type:        "string",
					Description: "A cidade para a qual se deve obter o clima, por exemplo, 'São Paulo'.",
				},
			},
			Required: []string{"location"},
		},
		Response: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"weatherInfo": {
					Type:        "string",
					Description: "Descrição do clima atual na cidade",
				},
			},
			Required: []string{"weatherInfo"},
		},
		Call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			location, _ := args["location"].(string)
			location = strings.TrimSpace(location)
			if location == "" {
				return nil, errMissingLocation
			}

			info, err := lookupWeather(ctx, cfg, location)
			if err != nil {
				cfg.Logger.Warn("weather lookup failed", "location", location, "error", err)
				return nil, ErrWeatherUnavailable
			}

			return map[string]any{"weatherInfo": info}, nil
		},
	}
}

func lookupWeather(ctx context.Context, cfg WeatherConfig, location string) (string, error) {
	if cfg.APIKey == "" {
		return "", errors.New("weather: api key not configured")
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("weather: parse base url: %w", err)
	}
	q := u.Query()
	q.Set("q", location)
	q.Set("appid", cfg.APIKey)
	q.Set("units", "metric")
	q.Set("lang", "pt_br")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("weather: build request: %w", err)
	}

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("weather: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("weather: status %d: %s", resp.StatusCode, gjson.GetBytes(body, "message").String())
	}

	if !gjson.ValidBytes(body) {
		return "", errors.New("weather: invalid json payload")
	}

	fields := gjson.GetManyBytes(body, "name", "weather.0.description", "main.temp", "main.feels_like")
	if !fields[2].Exists() {
		return "", errors.New("weather: payload missing temperature")
	}

	return fmt.Sprintf("Clima em %s: %s, temperatura de %s°C (sensação de %s°C).",
		fields[0].String(),
		fields[1].String(),
		formatNumber(fields[2].Float()),
		formatNumber(fields[3].Float()),
	), nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
