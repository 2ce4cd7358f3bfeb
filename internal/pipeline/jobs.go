package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/reportgest/internal/sections"
)

// JobStatus represents the state of an extraction job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusFetching   JobStatus = "fetching"
	StatusExtracting JobStatus = "extracting"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job tracks one fetch-extract-store run for a source URL.
type Job struct {
	mu sync.Mutex

	ID        string
	SourceURL string
	// Key names the stored result. Empty means derive it from the content.
	Key string

	Status JobStatus
	Phase  string

	Progress Progress

	CreatedAt time.Time
	UpdatedAt time.Time

	result *sections.Result
	errors []string
}

// Progress tracks processing progress.
type Progress struct {
	Attempts    int      `json:"attempts"`
	Sections    int      `json:"sections"`
	Subsections int      `json:"subsections"`
	Rows        int      `json:"rows"`
	Errors      []string `json:"errors"`
}

// NewJobID returns a random job identifier.
func NewJobID() string {
	return uuid.NewString()
}

// NewJob returns a queued job for sourceURL.
func NewJob(sourceURL, key string) *Job {
	now := time.Now()
	return &Job{
		ID:        NewJobID(),
		SourceURL: sourceURL,
		Key:       key,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes finished jobs idle for longer than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.finishedLocked() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) finishedLocked() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrAttempts counts one fetch attempt.
func (j *Job) IncrAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Attempts++
	j.UpdatedAt = time.Now()
}

// SetResult records the extraction result and its counts.
func (j *Job) SetResult(res sections.Result) {
	c := res.Counts()
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = &res
	j.Progress.Sections = c.Sections
	j.Progress.Subsections = c.Subsections
	j.Progress.Rows = c.Rows
	j.UpdatedAt = time.Now()
}

// Result returns the extraction result, if the job got that far.
func (j *Job) Result() (sections.Result, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.result == nil {
		return sections.Result{}, false
	}
	return *j.result, true
}

// SetKey records the storage key chosen for the result.
func (j *Job) SetKey(key string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Key = key
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	SourceURL string    `json:"source_url"`
	Key       string    `json:"key,omitempty"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:        j.ID,
		SourceURL: j.SourceURL,
		Key:       j.Key,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  p,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
