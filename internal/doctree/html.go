package doctree

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ErrUnparseable is returned when input cannot be turned into a tree at all.
// Broken markup is not an error; the HTML parser recovers from it.
var ErrUnparseable = errors.New("input could not be parsed")

// Parse reads HTML from r and returns the root of its document tree.
func Parse(r io.Reader) (*Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseable, err)
	}
	return FromHTML(doc), nil
}

// FromHTML converts an x/net/html tree into a Node tree.
func FromHTML(h *html.Node) *Node {
	n := &Node{}
	switch h.Type {
	case html.ElementNode:
		n.Kind = ElementNode
		n.Tag = strings.ToLower(h.Data)
	case html.TextNode:
		n.Kind = TextNode
		n.Text = h.Data
	default:
		n.Kind = OtherNode
	}
	for c := h.FirstChild; c != nil; c = c.NextSibling {
		n.Append(FromHTML(c))
	}
	return n
}
