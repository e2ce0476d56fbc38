package agent

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Outcome records how a reply's text was produced.
type Outcome string

const (
	OutcomeText           Outcome = "text"
	OutcomeBlocked        Outcome = "blocked"
	OutcomeToolsExhausted Outcome = "tools_exhausted"
	OutcomeEmpty          Outcome = "empty"
)

// Fallbacks are the replies used when the model produced no text.
// Blocked is a format string receiving the block reason.
type Fallbacks struct {
	Blocked        string
	ToolsExhausted string
	Empty          string
}

// DefaultFallbacks speak in the persona's voice.
var DefaultFallbacks = Fallbacks{
	Blocked:        "Minha resposta foi bloqueada por motivos de segurança (%s). Por favor, reformule sua pergunta.",
	ToolsExhausted: "Tentei usar minhas ferramentas, mas não consegui formular uma resposta em texto. Poderia tentar de outra forma?",
	Empty:          "Peço perdão, mas não consegui gerar uma resposta neste momento.",
}

func (f Fallbacks) withDefaults() Fallbacks {
	if f.Blocked == "" {
		f.Blocked = DefaultFallbacks.Blocked
	}
	if f.ToolsExhausted == "" {
		f.ToolsExhausted = DefaultFallbacks.ToolsExhausted
	}
	if f.Empty == "" {
		f.Empty = DefaultFallbacks.Empty
	}
	return f
}

// finalize picks the reply text for the last model response.
// Precedence for empty text: block reason, then tool-turn exhaustion, then generic.
func (f Fallbacks) finalize(resp *genai.GenerateContentResponse, exhausted bool) (string, Outcome) {
	if text := responseText(resp); text != "" {
		return text, OutcomeText
	}
	if reason := blockReason(resp); reason != "" {
		return fmt.Sprintf(f.Blocked, reason), OutcomeBlocked
	}
	if exhausted {
		return f.ToolsExhausted, OutcomeToolsExhausted
	}
	return f.Empty, OutcomeEmpty
}

func firstContent(resp *genai.GenerateContentResponse) *genai.Content {
	if resp == nil {
		return nil
	}
	for _, c := range resp.Candidates {
		if c != nil && c.Content != nil {
			return c.Content
		}
	}
	return nil
}

// responseText concatenates the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	content := firstContent(resp)
	if content == nil {
		return ""
	}

	var b strings.Builder
	for _, p := range content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func functionCalls(content *genai.Content) []*genai.FunctionCall {
	if content == nil {
		return nil
	}
	var calls []*genai.FunctionCall
	for _, p := range content.Parts {
		if p != nil && p.FunctionCall != nil {
			calls = append(calls, p.FunctionCall)
		}
	}
	return calls
}

// blockReason reports why the prompt or the candidate was withheld, if it was.
func blockReason(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	if fb := resp.PromptFeedback; fb != nil {
		if fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
			return string(fb.BlockReason)
		}
	}

	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		switch c.FinishReason {
		case genai.FinishReasonSafety,
			genai.FinishReasonRecitation,
			genai.FinishReasonBlocklist,
			genai.FinishReasonProhibitedContent,
			genai.FinishReasonSPII,
			genai.FinishReasonImageSafety:
			return string(c.FinishReason)
		}
	}

	return ""
}
