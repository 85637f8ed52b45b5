// Package parser detects the YAML preamble at the head of a note and renders
// Markdown bodies to HTML.
package parser

import (
	"bytes"
	"errors"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Preamble is the structured block a note may open with. Date is decoded but
// callers currently ignore it in favour of filesystem timestamps.
type Preamble struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
	Date  string   `yaml:"date"`
}

// Only YAML fences are recognised; TOML and JSON blocks stay part of the body.
var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("---yaml", "---", yaml.Unmarshal),
}

// ErrNoPreamble is returned when content carries no usable preamble.
var ErrNoPreamble = errors.New("parser: no preamble")

// ParsePreamble decodes the preamble at the start of content and returns it
// together with the remaining body. Missing fences, an unterminated block and
// malformed YAML all yield ErrNoPreamble so the caller can keep its defaults.
// An empty block is a present preamble with zero values.
func ParsePreamble(content []byte) (*Preamble, []byte, error) {
	var p Preamble
	body, err := frontmatter.MustParse(bytes.NewReader(content), &p, formats...)
	if err != nil {
		return nil, content, ErrNoPreamble
	}
	return &p, body, nil
}

// Body returns content with any preamble removed.
func Body(content []byte) []byte {
	_, body, err := ParsePreamble(content)
	if err != nil {
		return content
	}
	return bytes.TrimLeft(body, "\r\n")
}
