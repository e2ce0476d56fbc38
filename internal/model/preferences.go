package model

import "time"

// MaxCustomInstructionLength bounds a user's custom persona instruction, in characters.
const MaxCustomInstructionLength = 2000

// Preferences holds per-user settings.
// An empty CustomSystemInstruction means the global instruction is used.
type Preferences struct {
	UserID                  string    `json:"userId" bson:"_id"`
	CustomSystemInstruction string    `json:"customSystemInstruction,omitempty" bson:"custom_system_instruction,omitempty"`
	UpdatedAt               time.Time `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}
