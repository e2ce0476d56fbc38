package assets

import (
	"io/fs"
	"strings"
	"testing"
)

func TestPreamble(t *testing.T) {
	p := Preamble()
	if len(p) != 2 {
		t.Fatalf("expected 2 preamble turns, got %d", len(p))
	}
	if p[0].Role != "user" || p[1].Role != "model" {
		t.Errorf("roles = %q, %q", p[0].Role, p[1].Role)
	}
	if !strings.Contains(p[1].Text(), "Musashi Miyamoto") {
		t.Errorf("model preamble = %q", p[1].Text())
	}
}

func TestDirServesIndex(t *testing.T) {
	for _, name := range []string{"index.html", "script.js", "style.css"} {
		if _, err := fs.Stat(Dir, name); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if strings.TrimSpace(SystemInstruction) == "" {
		t.Error("empty system instruction")
	}
}
