package pipeline

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/smilq/internal/epub"
	"github.com/dgallion1/smilq/internal/overlay"
)

// JobStatus represents the state of an overlay import job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusImporting JobStatus = "importing"
	StatusCompleted JobStatus = "completed"
	StatusPartial   JobStatus = "partial" // imported with warnings or errors
	StatusFailed    JobStatus = "failed"
)

// Job tracks the import of one media overlay document.
type Job struct {
	mu sync.Mutex

	ID          string `json:"job_id"`
	SpineItemID string `json:"spine_item_id"`
	SMILID      string `json:"smil_id"`
	Href        string `json:"href"` // relative to the package document
	Path        string `json:"path"` // relative to the container root

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	declared    *float64
	model       *overlay.Model
	diagnostics []overlay.Diagnostic
	errors      []string
}

// Progress summarizes an import.
type Progress struct {
	Nodes       int      `json:"nodes"`
	Pars        int      `json:"pars"`
	DurationMs  float64  `json:"duration_ms"`
	Diagnostics int      `json:"diagnostics"`
	Errors      []string `json:"errors"`
}

// NewJob creates a queued job for one overlay of a publication.
func NewJob(o epub.Overlay) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.Must(uuid.NewV7()).String(),
		SpineItemID: o.SpineItemID,
		SMILID:      o.SMILID,
		Href:        o.Href,
		Path:        o.Path,
		Status:      StatusQueued,
		Phase:       "queued",
		CreatedAt:   now,
		UpdatedAt:   now,
		declared:    o.Duration,
	}
}

// JobStore is a thread-safe in-memory job registry.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
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

// All returns every job ordered by creation.
func (s *JobStore) All() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].ID < out[k].ID
		}
		return out[i].CreatedAt.Before(out[k].CreatedAt)
	})
	return out
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// SetContentHash records the digest of the raw overlay bytes.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
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

// SetResult stores the imported model and its diagnostics, and settles the
// final status.
func (j *Job) SetResult(m *overlay.Model, diags []overlay.Diagnostic) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.model = m
	j.diagnostics = diags
	j.Progress.Nodes = m.Len()
	j.Progress.DurationMs = m.DurationMillisecondsCalculated()
	if len(m.Children) > 0 {
		j.Progress.Pars = m.ParallelCount(m.Children[0])
	}
	j.Progress.Diagnostics = len(diags)

	j.Status = StatusCompleted
	for _, d := range diags {
		if d.Level >= slog.LevelWarn {
			j.Status = StatusPartial
			break
		}
	}
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// Model returns the imported model, nil until the job completes.
func (j *Job) Model() *overlay.Model {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.model
}

// Diagnostics returns a copy of the diagnostics collected during import.
func (j *Job) Diagnostics() []overlay.Diagnostic {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]overlay.Diagnostic(nil), j.diagnostics...)
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	SpineItemID string    `json:"spine_item_id"`
	SMILID      string    `json:"smil_id"`
	Href        string    `json:"href"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	p := j.Progress
	p.Errors = append([]string{}, errs...)
	return JobSnapshot{
		ID:          j.ID,
		SpineItemID: j.SpineItemID,
		SMILID:      j.SMILID,
		Href:        j.Href,
		Status:      j.Status,
		Phase:       j.Phase,
		ContentHash: j.ContentHash,
		Progress:    p,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
