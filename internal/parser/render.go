package parser

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Notes are local files owned by the user, so raw HTML passes through.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// Render strips the preamble from content and converts the body to HTML.
func Render(content []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(Body(content), &buf); err != nil {
		return nil, fmt.Errorf("parser: render: %w", err)
	}
	return buf.Bytes(), nil
}
