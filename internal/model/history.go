package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatRecord is a finished conversation saved by the client.
type ChatRecord struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SessionID string             `json:"sessionId" bson:"session_id"`
	BotID     string             `json:"botId,omitempty" bson:"bot_id,omitempty"`
	UserID    string             `json:"userId" bson:"user_id"`
	Title     string             `json:"title,omitempty" bson:"title,omitempty"`
	StartTime time.Time          `json:"startTime" bson:"start_time"`
	LoggedAt  time.Time          `json:"loggedAt" bson:"logged_at"`
	Messages  []Content          `json:"messages" bson:"messages"`
}

// Transcript renders the record's messages as "role: text" lines.
func (r ChatRecord) Transcript() string {
	var b strings.Builder
	for i, m := range r.Messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Text())
	}
	return b.String()
}
