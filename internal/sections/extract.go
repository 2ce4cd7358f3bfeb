// Package sections turns semi-structured HTML reports into nested records:
// whitelisted h1 sections, their whitelisted h2 subsections, and the first
// table under each subsection.
package sections

import (
	"io"
	"strings"

	"github.com/dgallion1/reportgest/internal/doctree"
)

// ErrUnparseable is returned when the input cannot be parsed into a tree.
var ErrUnparseable = doctree.ErrUnparseable

const (
	topTag   = "h1"
	subTag   = "h2"
	tableTag = "table"
)

// Extractor holds the whitelists used to accept headings. It has no mutable
// state and may be shared across goroutines.
type Extractor struct {
	Top *Whitelist
	Sub *Whitelist
}

// New returns an extractor using the built-in whitelists.
func New() *Extractor {
	return &Extractor{Top: TopLevel, Sub: SubLevel}
}

// Extract parses htmlText with the built-in whitelists.
func Extract(htmlText string) (Result, error) {
	return New().Extract(htmlText)
}

func (e *Extractor) Extract(htmlText string) (Result, error) {
	return e.ExtractReader(strings.NewReader(htmlText))
}

func (e *Extractor) ExtractReader(r io.Reader) (Result, error) {
	root, err := doctree.Parse(r)
	if err != nil {
		return Result{}, err
	}
	return e.ExtractTree(root), nil
}

// ExtractTree walks a parsed document. Each accepted h1 owns the siblings
// that follow it up to, not including, the next h1 in document order.
func (e *Extractor) ExtractTree(root *doctree.Node) Result {
	var result Result
	headings := root.FindAll(topTag)
	for i, current := range headings {
		var boundary *doctree.Node
		if i+1 < len(headings) {
			boundary = headings[i+1]
		}

		text := current.TextContent()
		if !e.Top.Contains(text) {
			continue
		}
		section := &Section{}
		result.Set(text, section)

		for _, sib := range current.NextSiblings() {
			if sib == boundary {
				break
			}
			if !sib.IsElement(subTag) {
				continue
			}
			subText := sib.TextContent()
			if !e.Sub.Contains(subText) {
				continue
			}
			if table, ok := findNextTable(sib); ok {
				section.Set(subText, Materialize(table))
			}
		}
	}
	return result
}

// findNextTable returns the first table among start's following siblings,
// giving up at the next heading of either level.
func findNextTable(start *doctree.Node) (*doctree.Node, bool) {
	for _, sib := range start.NextSiblings() {
		switch {
		case sib.IsElement(tableTag):
			return sib, true
		case sib.IsElement(subTag), sib.IsElement(topTag):
			return nil, false
		}
	}
	return nil, false
}
