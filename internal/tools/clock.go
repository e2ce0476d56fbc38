package tools

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/google/jsonschema-go/jsonschema"
)

// CurrentTimeTool is the name the model uses to ask for the date and time.
const CurrentTimeTool = "getCurrentTime"

// DefaultTimeZone is the zone the clock reports in when none is configured.
const DefaultTimeZone = "America/Sao_Paulo"

// NewClock returns the getCurrentTime tool. now defaults to time.Now.
func NewClock(loc *time.Location, now func() time.Time) *Declaration {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}

	return &Declaration{
		Name:        CurrentTimeTool,
		Description: fmt.Sprintf("Obtém a data e a hora atuais no fuso horário %s.", loc.String()),
		Parameters: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
		Response: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"dateTimeInfo": {
					Type:        "string",
					Description: "Data e hora, ex: Data: 01/01/2024, Hora: 10:30",
				},
			},
			Required: []string{"dateTimeInfo"},
		},
		Call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			t := now().In(loc)
			return map[string]any{
				"dateTimeInfo": FormatDateTime(t),
			}, nil
		},
	}
}

// FormatDateTime renders t the way Brazilian users read it.
func FormatDateTime(t time.Time) string {
	return fmt.Sprintf("Data: %s, Hora: %s", t.Format("02/01/2006"), t.Format("15:04"))
}
