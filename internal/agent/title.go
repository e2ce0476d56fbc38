package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
	"google.golang.org/genai"
)

// ErrEmptyTitle is returned when the model suggests nothing usable.
var ErrEmptyTitle = errors.New("agent: model returned an empty title")

const titlePrompt = "Baseado nesta conversa, sugira um título curto e conciso de no máximo 5 palavras:\n\n"

// GenerateTitle asks the model for a short title summarizing record.
// No tools or persona are involved.
func (a *Agent) GenerateTitle(ctx context.Context, record model.ChatRecord) (string, error) {
	if len(record.Messages) == 0 {
		return "", ErrInvalidInput
	}

	contents := []*genai.Content{
		genai.NewContentFromText(titlePrompt+record.Transcript(), genai.RoleUser),
	}

	resp, err := a.generate(ctx, contents, a.baseConfig())
	if err != nil {
		return "", err
	}

	title := strings.Trim(strings.TrimSpace(responseText(resp)), "\"'*")
	if title == "" {
		return "", ErrEmptyTitle
	}

	return title, nil
}
