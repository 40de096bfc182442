package decor

import (
	"bytes"

	"github.com/yuin/goldmark"
)

type goldmarkRenderer struct {
	md goldmark.Markdown
}

// NewRenderer returns the default goldmark-backed widget renderer.
func NewRenderer() Renderer {
	return &goldmarkRenderer{md: goldmark.New()}
}

func (g *goldmarkRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
