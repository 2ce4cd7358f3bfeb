package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/reportgest/internal/config"
	"github.com/dgallion1/reportgest/internal/fetch"
	"github.com/dgallion1/reportgest/internal/sections"
	"github.com/dgallion1/reportgest/internal/sink"
)

const reportHTML = `<h1>Asset Inventory</h1>
<h2>Servers</h2>
<table><tr><th>Host</th><th>OS</th></tr><tr><td>db01</td><td>linux</td></tr></table>`

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	errs  []error
	doc   *fetch.Document
}

func (f *fakeFetcher) Get(ctx context.Context, url string) (*fetch.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.doc, nil
}

type memSink struct {
	mu    sync.Mutex
	items map[string][]byte
	err   error
}

func (s *memSink) Name() string { return "memory" }

func (s *memSink) Put(ctx context.Context, key string, result sections.Result) error {
	if s.err != nil {
		return s.err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = make(map[string][]byte)
	}
	s.items[key] = data
	return nil
}

func (s *memSink) Get(ctx context.Context, key string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.items[key]
	if !ok {
		return nil, sink.ErrNotFound
	}
	return data, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func htmlDoc(body string) *fetch.Document {
	return &fetch.Document{URL: "https://example.com/r", ContentType: "text/html; charset=utf-8", Body: []byte(body)}
}

func newTestWorker(f Fetcher, s sink.Sink) *Worker {
	w := NewWorker(f, s, nil, discardLogger(), 3)
	w.backoff = func(int) time.Duration { return 0 }
	return w
}

func TestWorker_ProcessStoresResult(t *testing.T) {
	f := &fakeFetcher{doc: htmlDoc(reportHTML)}
	s := &memSink{}
	job := NewJob("https://example.com/r", "weekly")

	newTestWorker(f, s).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Rows != 1 || snap.Progress.Sections != 1 {
		t.Errorf("unexpected progress: %+v", snap.Progress)
	}
	want := `{"Asset Inventory":{"Servers":[{"Host":"db01","OS":"linux"}]}}`
	if got := string(s.items["weekly"]); got != want {
		t.Errorf("stored %s, want %s", got, want)
	}
}

func TestWorker_DerivesKeyFromContent(t *testing.T) {
	f := &fakeFetcher{doc: htmlDoc(reportHTML)}
	s := &memSink{}
	job := NewJob("https://example.com/r", "")

	newTestWorker(f, s).Process(context.Background(), job)

	want := ContentHashHex([]byte(reportHTML))[:16]
	if got := job.Snapshot().Key; got != want {
		t.Errorf("expected key %q, got %q", want, got)
	}
	if _, ok := s.items[want]; !ok {
		t.Error("expected result stored under derived key")
	}
}

func TestWorker_RetriesRetryableFetch(t *testing.T) {
	transient := &fetch.RetryableError{Err: errors.New("status 503")}
	f := &fakeFetcher{errs: []error{transient, transient}, doc: htmlDoc(reportHTML)}
	job := NewJob("https://example.com/r", "k")

	newTestWorker(f, &memSink{}).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", snap.Status)
	}
	if snap.Progress.Attempts != 3 || f.calls != 3 {
		t.Errorf("expected 3 attempts, got %d (calls %d)", snap.Progress.Attempts, f.calls)
	}
}

func TestWorker_GivesUpAfterMaxAttempts(t *testing.T) {
	transient := &fetch.RetryableError{Err: errors.New("status 503")}
	f := &fakeFetcher{errs: []error{transient, transient, transient, transient}}
	job := NewJob("https://example.com/r", "k")

	newTestWorker(f, &memSink{}).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "fetching" {
		t.Errorf("expected failed in fetching, got %q/%q", snap.Status, snap.Phase)
	}
	if f.calls != 3 {
		t.Errorf("expected 3 calls, got %d", f.calls)
	}
}

func TestWorker_PermanentFetchErrorNotRetried(t *testing.T) {
	f := &fakeFetcher{errs: []error{errors.New("status 404")}}
	job := NewJob("https://example.com/r", "k")

	newTestWorker(f, &memSink{}).Process(context.Background(), job)

	if f.calls != 1 {
		t.Errorf("expected 1 call, got %d", f.calls)
	}
	if len(job.Snapshot().Progress.Errors) != 1 {
		t.Error("expected one recorded error")
	}
}

func TestWorker_UnsupportedContentType(t *testing.T) {
	f := &fakeFetcher{doc: &fetch.Document{ContentType: "application/pdf", Body: []byte("%PDF")}}
	job := NewJob("https://example.com/r.pdf", "k")

	newTestWorker(f, &memSink{}).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "extracting" {
		t.Errorf("expected failed in extracting, got %q/%q", snap.Status, snap.Phase)
	}
}

func TestWorker_SinkFailure(t *testing.T) {
	f := &fakeFetcher{doc: htmlDoc(reportHTML)}
	job := NewJob("https://example.com/r", "k")

	newTestWorker(f, &memSink{err: errors.New("bucket gone")}).Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "storing" {
		t.Errorf("expected failed in storing, got %q/%q", snap.Status, snap.Phase)
	}
	if _, ok := job.Result(); !ok {
		t.Error("expected extraction result kept on store failure")
	}
}

func TestWorker_MarkdownDocument(t *testing.T) {
	md := "# Access Review\n\n## Privileged Accounts\n\n| User | Role |\n|------|------|\n| root | admin |\n"
	f := &fakeFetcher{doc: &fetch.Document{ContentType: "text/markdown", Body: []byte(md)}}
	s := &memSink{}
	job := NewJob("https://example.com/r.md", "md")

	newTestWorker(f, s).Process(context.Background(), job)

	want := `{"Access Review":{"Privileged Accounts":[{"User":"root","Role":"admin"}]}}`
	if got := string(s.items["md"]); got != want {
		t.Errorf("stored %s, want %s", got, want)
	}
}

func TestRetrieve_ContextCanceledDuringBackoff(t *testing.T) {
	transient := &fetch.RetryableError{Err: errors.New("status 503")}
	f := &fakeFetcher{errs: []error{transient, transient}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Retrieve(ctx, f, "https://example.com", 3, func(int) time.Duration { return time.Hour }, nil, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.WorkerCount = 2
	cfg.MaxQueueSize = 4
	cfg.FetchMaxAttempts = 1
	return cfg
}

func TestOrchestrator_SubmitProcesses(t *testing.T) {
	s := &memSink{}
	o := NewOrchestrator(testConfig(), &fakeFetcher{doc: htmlDoc(reportHTML)}, s, discardLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := NewJob("https://example.com/r", "k1")
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o.GetJob(job.ID) != job {
		t.Fatal("expected job registered")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := job.Snapshot().Status; st == StatusCompleted || st == StatusFailed {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if st := job.Snapshot().Status; st != StatusCompleted {
		t.Fatalf("expected completed, got %q", st)
	}
	if _, err := o.Sink().Get(context.Background(), "k1"); err != nil {
		t.Errorf("expected stored result: %v", err)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	// Not started: nothing drains the queue.
	o := NewOrchestrator(cfg, &fakeFetcher{}, &memSink{}, discardLogger())

	if err := o.Submit(NewJob("https://example.com/a", "")); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected depth 1, got %d", o.QueueDepth())
	}
	job := NewJob("https://example.com/b", "")
	err := o.Submit(job)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if job.Snapshot().Status != StatusFailed {
		t.Error("expected rejected job marked failed")
	}
}

type gatedFetcher struct {
	started chan struct{}
	release chan struct{}
}

func (f *gatedFetcher) Get(ctx context.Context, url string) (*fetch.Document, error) {
	close(f.started)
	select {
	case <-f.release:
		return htmlDoc(reportHTML), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestOrchestrator_StopDrainsInFlightJob(t *testing.T) {
	f := &gatedFetcher{started: make(chan struct{}), release: make(chan struct{})}
	s := &memSink{}
	o := NewOrchestrator(testConfig(), f, s, discardLogger())
	o.Start(context.Background())

	job := NewJob("https://example.com/r", "drained")
	if err := o.Submit(job); err != nil {
		t.Fatalf("submit: %v", err)
	}
	<-f.started

	stopped := make(chan struct{})
	go func() {
		o.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned before the in-flight job finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(f.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the job finished")
	}

	if st := job.Snapshot().Status; st != StatusCompleted {
		t.Errorf("expected completed, got %q (errors %v)", st, job.Snapshot().Progress.Errors)
	}
	if _, err := s.Get(context.Background(), "drained"); err != nil {
		t.Errorf("expected stored result: %v", err)
	}
}
