// Package render converts markdown document bodies to the HTML stored
// alongside the raw source on the remote post.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts a markdown body to HTML.
type Renderer interface {
	Render(markdown string) (string, error)
}

// Goldmark is the primary renderer: CommonMark plus GFM tables, strikethrough
// and autolinks. Raw HTML passes through, matching what authors expect from
// a markdown editor.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark builds the default renderer.
func NewGoldmark() *Goldmark {
	return &Goldmark{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

func (g *Goldmark) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
