package parser

import (
	"io"

	"github.com/dgallion1/reportgest/internal/doctree"
)

// HTMLParser handles HTML reports.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader) (*doctree.Node, error) {
	return doctree.Parse(r)
}
