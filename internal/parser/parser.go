package parser

import (
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/dgallion1/reportgest/internal/doctree"
)

// Parser converts a raw report into a document tree.
type Parser interface {
	Parse(r io.Reader) (*doctree.Node, error)
}

// SupportedExtensions maps file extensions to the format name ForFormat
// accepts.
var SupportedExtensions = map[string]string{
	".html":     "html",
	".htm":      "html",
	".xhtml":    "html",
	".md":       "markdown",
	".markdown": "markdown",
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	format, ok := SupportedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
	return ForFormat(format)
}

// ForContentType returns the parser for a MIME type. An empty content type
// is treated as HTML.
func ForContentType(contentType string) (Parser, error) {
	if strings.TrimSpace(contentType) == "" {
		return &HTMLParser{}, nil
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("invalid content type %q: %w", contentType, err)
	}
	switch mt {
	case "text/html", "application/xhtml+xml":
		return &HTMLParser{}, nil
	case "text/markdown", "text/x-markdown":
		return &MarkdownParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported content type: %s", mt)
	}
}

// ForFormat maps a short format name ("html", "markdown"/"md") to a parser.
func ForFormat(format string) (Parser, error) {
	switch strings.ToLower(format) {
	case "", "html", "htm":
		return &HTMLParser{}, nil
	case "markdown", "md":
		return &MarkdownParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
