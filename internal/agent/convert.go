package agent

import (
	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
	"google.golang.org/genai"
)

// toModelContents converts genai turns to []model.Content for the session store.
// Thought parts are dropped.
func toModelContents(contents []*genai.Content) []model.Content {
	result := make([]model.Content, 0, len(contents))
	for _, c := range contents {
		if c == nil {
			continue
		}
		mc := model.Content{Role: c.Role, Parts: make([]model.Part, 0, len(c.Parts))}
		for _, p := range c.Parts {
			if p == nil || p.Thought {
				continue
			}
			mc.Parts = append(mc.Parts, toModelPart(p))
		}
		result = append(result, mc)
	}
	return result
}

func toModelPart(p *genai.Part) model.Part {
	mp := model.Part{Text: p.Text}
	if p.FunctionCall != nil {
		mp.FunctionCall = &model.FunctionCall{
			ID:   p.FunctionCall.ID,
			Name: p.FunctionCall.Name,
			Args: p.FunctionCall.Args,
		}
	}
	if p.FunctionResponse != nil {
		mp.FunctionResponse = &model.FunctionResponse{
			ID:       p.FunctionResponse.ID,
			Name:     p.FunctionResponse.Name,
			Response: p.FunctionResponse.Response,
		}
	}
	return mp
}

// toGenAIContents converts stored turns back to genai history.
func toGenAIContents(contents []model.Content) []*genai.Content {
	result := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		gc := &genai.Content{Role: c.Role, Parts: make([]*genai.Part, 0, len(c.Parts))}
		for _, p := range c.Parts {
			gc.Parts = append(gc.Parts, toGenAIPart(p))
		}
		result = append(result, gc)
	}
	return result
}

func toGenAIPart(p model.Part) *genai.Part {
	gp := &genai.Part{Text: p.Text}
	if p.FunctionCall != nil {
		gp.FunctionCall = &genai.FunctionCall{
			ID:   p.FunctionCall.ID,
			Name: p.FunctionCall.Name,
			Args: p.FunctionCall.Args,
		}
	}
	if p.FunctionResponse != nil {
		gp.FunctionResponse = &genai.FunctionResponse{
			ID:       p.FunctionResponse.ID,
			Name:     p.FunctionResponse.Name,
			Response: p.FunctionResponse.Response,
		}
	}
	return gp
}
