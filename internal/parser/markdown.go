package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/reportgest/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MarkdownParser handles Markdown reports using goldmark. The document is
// rendered to HTML first, so "#" headings become h1, "##" become h2 and GFM
// pipe tables become table elements with th/td cells.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader) (*doctree.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read markdown: %w", doctree.ErrUnparseable, err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("%w: render markdown: %w", doctree.ErrUnparseable, err)
	}
	return doctree.Parse(&buf)
}
