// Package render turns post content into HTML.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Markdown renders CommonMark plus GitHub extensions. A single instance
// is safe for concurrent use.
type Markdown struct {
	engine goldmark.Markdown
}

// Option adjusts the renderer.
type Option func(*options)

type options struct {
	unsafe    bool
	hardWraps bool
}

// WithUnsafeHTML lets raw HTML in the source through to the output.
func WithUnsafeHTML() Option {
	return func(o *options) { o.unsafe = true }
}

// WithHardWraps renders single newlines as <br>.
func WithHardWraps() Option {
	return func(o *options) { o.hardWraps = true }
}

// NewMarkdown builds a renderer.
func NewMarkdown(opts ...Option) *Markdown {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var rendererOpts []goldmark.Option
	var htmlOpts []renderer.Option
	if o.unsafe {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}
	if o.hardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}
	if len(htmlOpts) > 0 {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(htmlOpts...))
	}

	engine := goldmark.New(append([]goldmark.Option{
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}, rendererOpts...)...)

	return &Markdown{engine: engine}
}

// Render converts markdown source to HTML.
func (m *Markdown) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := m.engine.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return buf.String(), nil
}
