// Package assets embeds the persona texts and the static chat UI.
package assets

import (
	"embed"
	"io/fs"
	"strings"

	"github.com/Carlos1dev017/Chatbot-Superpowers-Data-e-Hora/internal/model"
)

//go:embed system_instruction.md
var SystemInstruction string

//go:embed preamble_user.md
var preambleUser string

//go:embed preamble_model.md
var preambleModel string

//go:embed public
var public embed.FS

// Dir is the static UI served at the site root.
var Dir = mustSub(public, "public")

// Preamble returns the user/model exchange every new session starts with.
func Preamble() []model.Content {
	return []model.Content{
		model.NewTextContent(model.RoleUser, strings.TrimSpace(preambleUser)),
		model.NewTextContent(model.RoleModel, strings.TrimSpace(preambleModel)),
	}
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
