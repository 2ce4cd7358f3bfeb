package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/dgallion1/reportgest/internal/fetch"
	"github.com/dgallion1/reportgest/internal/metrics"
	"github.com/dgallion1/reportgest/internal/parser"
	"github.com/dgallion1/reportgest/internal/sections"
)

// Fetcher downloads source documents.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetch.Document, error)
}

// ExtractDocument parses body with p and runs the section extractor over it.
func ExtractDocument(e *sections.Extractor, p parser.Parser, body []byte, m *metrics.Metrics) (sections.Result, error) {
	start := time.Now()
	root, err := p.Parse(bytes.NewReader(body))
	if err != nil {
		m.ObserveExtraction(metrics.OutcomeParseError, 0, time.Since(start).Seconds())
		return sections.Result{}, err
	}
	res := e.ExtractTree(root)
	m.ObserveExtraction(metrics.OutcomeOK, res.Counts().Rows, time.Since(start).Seconds())
	return res, nil
}
