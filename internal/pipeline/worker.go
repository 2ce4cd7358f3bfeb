package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/reportgest/internal/metrics"
	"github.com/dgallion1/reportgest/internal/parser"
	"github.com/dgallion1/reportgest/internal/sections"
	"github.com/dgallion1/reportgest/internal/sink"
)

// Worker processes a single extraction job.
type Worker struct {
	fetcher   Fetcher
	sink      sink.Sink
	extractor *sections.Extractor
	metrics   *metrics.Metrics
	log       *slog.Logger

	maxAttempts int
	backoff     func(int) time.Duration
}

func NewWorker(f Fetcher, s sink.Sink, m *metrics.Metrics, log *slog.Logger, maxAttempts int) *Worker {
	return &Worker{
		fetcher:     f,
		sink:        s,
		extractor:   sections.New(),
		metrics:     m,
		log:         log,
		maxAttempts: maxAttempts,
		backoff:     Backoff,
	}
}

// Process runs fetch, extract and store for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "source", job.SourceURL)

	// Phase 1: Fetch
	job.SetStatus(StatusFetching, "fetching")
	doc, err := Retrieve(ctx, w.fetcher, job.SourceURL, w.maxAttempts, w.backoff, w.metrics, log, func(int) {
		job.IncrAttempts()
	})
	if err != nil {
		log.Error("fetch failed", "error", err)
		w.fail(job, "fetching", fmt.Sprintf("fetch: %s", err))
		return
	}

	// Phase 2: Extract
	job.SetStatus(StatusExtracting, "extracting")
	p, err := parser.ForContentType(doc.ContentType)
	if err != nil {
		log.Error("unsupported document", "content_type", doc.ContentType, "error", err)
		w.fail(job, "extracting", err.Error())
		return
	}
	res, err := ExtractDocument(w.extractor, p, doc.Body, w.metrics)
	if err != nil {
		log.Error("extract failed", "error", err)
		w.fail(job, "extracting", fmt.Sprintf("extract: %s", err))
		return
	}
	job.SetResult(res)
	counts := res.Counts()
	log.Info("extracted report", "sections", counts.Sections, "subsections", counts.Subsections, "rows", counts.Rows)

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	key := job.Snapshot().Key
	if key == "" {
		key = ContentHashHex(doc.Body)[:16]
		job.SetKey(key)
	}
	if err := w.sink.Put(ctx, key, res); err != nil {
		log.Error("store failed", "sink", w.sink.Name(), "key", key, "error", err)
		w.fail(job, "storing", fmt.Sprintf("store %s: %s", key, err))
		return
	}
	log.Info("stored result", "sink", w.sink.Name(), "key", key)

	job.SetStatus(StatusCompleted, "done")
	w.metrics.IncrementJobs(string(StatusCompleted))
}

func (w *Worker) fail(job *Job, phase, msg string) {
	job.AddError(msg)
	job.SetStatus(StatusFailed, phase)
	w.metrics.IncrementJobs(string(StatusFailed))
}
