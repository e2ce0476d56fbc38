package model

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// FunctionCall represents a function invocation requested by the model.
type FunctionCall struct {
	ID   string         `json:"id,omitempty" bson:"id,omitempty"`
	Name string         `json:"name" bson:"name"`
	Args map[string]any `json:"args,omitempty" bson:"args,omitempty"`
}

// FunctionResponse represents the result of a function invocation.
type FunctionResponse struct {
	ID       string         `json:"id,omitempty" bson:"id,omitempty"`
	Name     string         `json:"name" bson:"name"`
	Response map[string]any `json:"response,omitempty" bson:"response,omitempty"`
}

// Part is a single piece of a conversation turn.
type Part struct {
	Text             string            `json:"text,omitempty" bson:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"function_call,omitempty" bson:"function_call,omitempty"`
	FunctionResponse *FunctionResponse `json:"function_response,omitempty" bson:"function_response,omitempty"`
}

// Content is a single conversation turn, composed of one or more parts.
type Content struct {
	Parts []Part `json:"parts" bson:"parts"`
	Role  string `json:"role" bson:"role"`
}

// NewTextContent builds a single-part text turn.
func NewTextContent(role, text string) Content {
	return Content{Role: role, Parts: []Part{{Text: text}}}
}

// Text concatenates the text parts of the turn.
func (c Content) Text() string {
	var b strings.Builder
	for _, p := range c.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// Clone returns a copy of c that shares no slices or maps with it.
func (c Content) Clone() Content {
	out := Content{Role: c.Role, Parts: make([]Part, len(c.Parts))}
	for i, p := range c.Parts {
		cp := Part{Text: p.Text}
		if p.FunctionCall != nil {
			cp.FunctionCall = &FunctionCall{
				ID:   p.FunctionCall.ID,
				Name: p.FunctionCall.Name,
				Args: cloneMap(p.FunctionCall.Args),
			}
		}
		if p.FunctionResponse != nil {
			cp.FunctionResponse = &FunctionResponse{
				ID:       p.FunctionResponse.ID,
				Name:     p.FunctionResponse.Name,
				Response: cloneMap(p.FunctionResponse.Response),
			}
		}
		out.Parts[i] = cp
	}
	return out
}

// CloneContents clones every turn in contents.
func CloneContents(contents []Content) []Content {
	if contents == nil {
		return nil
	}
	out := make([]Content, len(contents))
	for i, c := range contents {
		out[i] = c.Clone()
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue deep-copies the container types produced by JSON and BSON
// decoding. Other values are immutable or copied by assignment.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case primitive.M:
		return primitive.M(cloneMap(t))
	case []any:
		return cloneSlice(t)
	case primitive.A:
		return primitive.A(cloneSlice(t))
	case primitive.D:
		if t == nil {
			return t
		}
		out := make(primitive.D, len(t))
		for i, e := range t {
			out[i] = primitive.E{Key: e.Key, Value: cloneValue(e.Value)}
		}
		return out
	case []byte:
		if t == nil {
			return t
		}
		return append([]byte(nil), t...)
	default:
		return v
	}
}

func cloneSlice(s []any) []any {
	if s == nil {
		return nil
	}
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}
