package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/assets"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/agent"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/config"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/repository"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/session"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/tools"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/genai"
)

// app holds the wired components shared by every command.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	agent       *agent.Agent
	history     repository.HistoryRepository
	preferences repository.PreferencesRepository
	closers     []func(context.Context) error
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(viper.GetViper(), configFile)
	if err != nil {
		return nil, nil, err
	}

	logger, err := config.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// newApp wires the agent. Mongo is connected when useMongo is set or the
// session backing needs it.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, useMongo bool) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	var db *mongo.Database
	if useMongo || cfg.SessionBackend == config.BackendMongo {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("mongodb connect: %w", err)
		}
		a.closers = append(a.closers, mongoClient.Disconnect)
		db = mongoClient.Database(cfg.MongoDB)

		a.history = repository.NewMongoHistoryRepository(db, repository.DefaultHistoryCollection)
		a.preferences = repository.NewMongoPreferencesRepository(db, repository.DefaultPreferencesCollection)
		logger.Info("connected to mongodb", "database", cfg.MongoDB)
	}

	sessionRepo, err := a.sessionRepository(db)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	registry, err := a.tools()
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	instruction := cfg.SystemInstruction
	if instruction == "" {
		instruction = assets.SystemInstruction
	}

	opts := []agent.Option{
		agent.WithLogger(logger),
		agent.WithMaxToolTurns(cfg.MaxToolTurns),
		agent.WithGenerationConfig(agent.GenerationConfig{
			Temperature:     cfg.Temperature,
			TopK:            cfg.TopK,
			TopP:            cfg.TopP,
			MaxOutputTokens: cfg.MaxOutputTokens,
		}),
	}
	if a.preferences != nil {
		opts = append(opts, agent.WithPreferences(a.preferences))
	}

	sessions := session.NewManager(sessionRepo, assets.Preamble())
	a.agent = agent.New(client.Models, cfg.Model, instruction, registry, sessions, opts...)

	logger.Info("agent ready",
		"model", cfg.Model,
		"session_backend", cfg.SessionBackend,
		"tools", registry.Names(),
	)
	return a, nil
}

func (a *app) sessionRepository(db *mongo.Database) (repository.SessionRepository, error) {
	switch a.cfg.SessionBackend {
	case config.BackendMongo:
		return repository.NewMongoSessionRepository(db, repository.DefaultSessionsCollection, a.cfg.SessionTTL), nil
	case config.BackendSQLite:
		repo, err := repository.NewSQLiteSessionRepository(a.cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return repo.Close() })
		return repo, nil
	default:
		return repository.NewMemorySessionRepository(a.cfg.SessionTTL, a.cfg.SessionMaxEntries), nil
	}
}

func (a *app) tools() (*tools.Registry, error) {
	loc, err := time.LoadLocation(a.cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	registry := tools.NewRegistry(a.logger)
	if err := registry.Register(tools.NewClock(loc, time.Now)); err != nil {
		return nil, err
	}

	if a.cfg.OpenWeatherAPIKey == "" {
		a.logger.Warn("openweather_api_key not set, weather lookups will fail")
	}
	weather := tools.NewWeather(tools.WeatherConfig{
		APIKey:     a.cfg.OpenWeatherAPIKey,
		BaseURL:    a.cfg.OpenWeatherURL,
		HTTPClient: &http.Client{Timeout: a.cfg.HTTPTimeout},
		Logger:     a.logger,
	})
	if err := registry.Register(weather); err != nil {
		return nil, err
	}

	return registry, nil
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("shutdown", "error", err)
		}
	}
}
