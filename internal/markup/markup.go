// Package markup converts agent-authored markdown into the HTML that text
// notes are stored as.
package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Supported content formats for tool input.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// Converter renders markdown to HTML.
type Converter struct {
	md goldmark.Markdown
}

// New creates a Converter with GitHub-flavoured markdown enabled.
func New() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// ToHTML renders markdown source to HTML.
func (c *Converter) ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// ValidateFormat normalizes a format name, defaulting to HTML.
func ValidateFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use %q or %q", format, FormatHTML, FormatMarkdown)
	}
}
