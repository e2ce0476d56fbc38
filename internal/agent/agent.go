// Package agent runs the conversation turn loop between a user, the Gemini
// model and the local tools.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/repository"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/session"
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/tools"
	"google.golang.org/genai"
)

// DefaultMaxToolTurns bounds how many rounds of tool calls one request may run.
const DefaultMaxToolTurns = 3

// Generator is the model call the agent depends on. *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenerationConfig holds the sampling parameters sent with every chat call.
// Zero values are left unset so the provider default applies.
type GenerationConfig struct {
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int32
}

// Request is one user message.
type Request struct {
	Message   string
	SessionID string
	UserID    string
}

// Reply is the finalized answer to a Request.
type Reply struct {
	Text      string
	SessionID string
	ToolTurns int
	Outcome   Outcome
}

type Agent struct {
	generator         Generator
	model             string
	systemInstruction string
	registry          *tools.Registry
	sessions          *session.Manager
	preferences       repository.PreferencesRepository
	maxToolTurns      int
	generation        GenerationConfig
	safety            []*genai.SafetySetting
	fallbacks         Fallbacks
	logger            *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxToolTurns overrides DefaultMaxToolTurns. Values below 1 are ignored.
func WithMaxToolTurns(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxToolTurns = n
		}
	}
}

// WithGenerationConfig sets sampling parameters.
func WithGenerationConfig(cfg GenerationConfig) Option {
	return func(a *Agent) { a.generation = cfg }
}

// WithSafetySettings replaces DefaultSafetySettings.
func WithSafetySettings(settings []*genai.SafetySetting) Option {
	return func(a *Agent) { a.safety = settings }
}

// WithPreferences lets users override the system instruction.
func WithPreferences(repo repository.PreferencesRepository) Option {
	return func(a *Agent) { a.preferences = repo }
}

// WithFallbacks overrides the replies used when the model produces no text.
func WithFallbacks(f Fallbacks) Option {
	return func(a *Agent) { a.fallbacks = f.withDefaults() }
}

// WithLogger sets the agent's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// DefaultSafetySettings block medium-and-above harm in every category.
func DefaultSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return settings
}

func New(generator Generator, model string, systemInstruction string, registry *tools.Registry, sessions *session.Manager, opts ...Option) *Agent {
	a := &Agent{
		generator:         generator,
		model:             model,
		systemInstruction: systemInstruction,
		registry:          registry,
		sessions:          sessions,
		maxToolTurns:      DefaultMaxToolTurns,
		safety:            DefaultSafetySettings(),
		fallbacks:         DefaultFallbacks,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Send runs one user message to completion: it calls the model, executes
// any requested tools, and repeats until the model answers in text or the
// tool-turn bound is reached. Model call failures abort the request and
// leave the session unchanged.
func (a *Agent) Send(ctx context.Context, req Request) (*Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrInvalidInput
	}

	sess, release, err := a.sessions.Acquire(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	defer release()

	logger := a.logger.With("session_id", sess.ID)
	if req.SessionID != sess.ID {
		logger.Info("new session")
	}

	history := toGenAIContents(sess.Snapshot())
	base := len(history)
	history = append(history, genai.NewContentFromText(message, genai.RoleUser))

	config := a.chatConfig(ctx, req.UserID, logger)

	resp, err := a.generate(ctx, history, config)
	if err != nil {
		logger.Error("model call failed", "error", err)
		return nil, err
	}

	toolTurns := 0
	for {
		content := firstContent(resp)
		calls := functionCalls(content)
		if len(calls) == 0 || toolTurns >= a.maxToolTurns {
			break
		}
		toolTurns++
		logger.Info("tool turn", "turn", toolTurns, "calls", len(calls))

		history = append(history, content, a.runTools(ctx, calls, logger))

		resp, err = a.generate(ctx, history, config)
		if err != nil {
			logger.Error("model call failed", "turn", toolTurns, "error", err)
			return nil, err
		}
	}

	text, outcome := a.fallbacks.finalize(resp, toolTurns >= a.maxToolTurns)
	if outcome != OutcomeText {
		logger.Warn("no text from model", "outcome", outcome, "tool_turns", toolTurns)
	}

	history = append(history, genai.NewContentFromText(text, genai.RoleModel))
	sess.Append(toModelContents(history[base:])...)
	if err := a.sessions.Put(ctx, sess); err != nil {
		logger.Warn("failed to save session", "error", err)
	}

	return &Reply{
		Text:      text,
		SessionID: sess.ID,
		ToolTurns: toolTurns,
		Outcome:   outcome,
	}, nil
}

// runTools executes calls in the order the model listed them and returns a
// single user turn carrying every result.
func (a *Agent) runTools(ctx context.Context, calls []*genai.FunctionCall, logger *slog.Logger) *genai.Content {
	parts := make([]*genai.Part, 0, len(calls))
	for _, call := range calls {
		res := a.registry.Invoke(ctx, call.Name, call.Args)
		if res.Failed() {
			logger.Warn("tool returned error", "tool", call.Name, "error", res.Err)
		} else {
			logger.Debug("tool result", "tool", call.Name, "result", res.OK)
		}

		parts = append(parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: res.Payload(),
			},
		})
	}

	return &genai.Content{Role: genai.RoleUser, Parts: parts}
}

func (a *Agent) generate(ctx context.Context, history []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	resp, err := a.generator.GenerateContent(ctx, a.model, history, config)
	if err != nil {
		return nil, classifyProviderError(err)
	}
	return resp, nil
}

func (a *Agent) chatConfig(ctx context.Context, userID string, logger *slog.Logger) *genai.GenerateContentConfig {
	cfg := a.baseConfig()
	cfg.Tools = a.registry.Declarations()
	cfg.SafetySettings = a.safety

	if instruction := a.instructionFor(ctx, userID, logger); instruction != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: instruction}},
		}
	}

	return cfg
}

func (a *Agent) baseConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if a.generation.Temperature != 0 {
		cfg.Temperature = genai.Ptr(a.generation.Temperature)
	}
	if a.generation.TopK != 0 {
		cfg.TopK = genai.Ptr(a.generation.TopK)
	}
	if a.generation.TopP != 0 {
		cfg.TopP = genai.Ptr(a.generation.TopP)
	}
	if a.generation.MaxOutputTokens != 0 {
		cfg.MaxOutputTokens = a.generation.MaxOutputTokens
	}
	return cfg
}

// instructionFor prefers the user's custom instruction over the global one.
func (a *Agent) instructionFor(ctx context.Context, userID string, logger *slog.Logger) string {
	if a.preferences == nil || userID == "" {
		return a.systemInstruction
	}

	prefs, err := a.preferences.Get(ctx, userID)
	if err != nil {
		logger.Warn("failed to load preferences, using global instruction", "user_id", userID, "error", err)
		return a.systemInstruction
	}
	if prefs != nil && prefs.CustomSystemInstruction != "" {
		logger.Debug("using custom instruction", "user_id", userID)
		return prefs.CustomSystemInstruction
	}

	return a.systemInstruction
}

// GetSession returns the stored turns of a live session, or an empty slice.
func (a *Agent) GetSession(ctx context.Context, sessionID string) ([]model.Content, error) {
	s, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	if s == nil {
		return []model.Content{}, nil
	}
	return s.Snapshot(), nil
}

// ClearSession forgets a live session. The next message with its id starts
// a new conversation.
func (a *Agent) ClearSession(ctx context.Context, sessionID string) error {
	if err := a.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	return nil
}

// Tools lists the names of the tools the model can call.
func (a *Agent) Tools() []string {
	return a.registry.Names()
}
