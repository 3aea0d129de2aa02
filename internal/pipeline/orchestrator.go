package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgallion1/smilq/internal/config"
	"github.com/dgallion1/smilq/internal/epub"
	"github.com/dgallion1/smilq/internal/overlay"
)

var (
	// ErrStopped is returned by Submit after the queue has been closed.
	ErrStopped = errors.New("pipeline stopped")
	// ErrNoOverlay is returned by Import for spine items without narration.
	ErrNoOverlay = errors.New("no media overlay for spine item")
)

// Orchestrator imports the overlays of one publication with a bounded
// worker pool.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	pub   *epub.Container
	octx  *overlay.Context
	stats *Stats
	log   *slog.Logger
	cfg   config.Config

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewOrchestrator creates the pipeline. queueSize bounds pending jobs.
func NewOrchestrator(cfg config.Config, pub *epub.Container, queueSize int, log *slog.Logger) *Orchestrator {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Orchestrator{
		jobs:  NewJobStore(),
		queue: make(chan *Job, queueSize),
		pub:   pub,
		octx:  cfg.Context(),
		stats: NewStats(0),
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.pub, o.octx, o.cfg.MaxDepth, o.stats, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}
}

// Wait closes the queue and blocks until every submitted job was processed
// or the context was cancelled.
func (o *Orchestrator) Wait() {
	o.closeQueue()
	o.wg.Wait()
	if o.cancel != nil {
		o.cancel()
	}
	o.failQueued()
}

// Stop cancels in-flight work and shuts the pipeline down. Jobs still
// queued are marked failed.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.closeQueue()
	o.wg.Wait()
	o.failQueued()
}

// failQueued marks jobs left in the closed queue as cancelled.
func (o *Orchestrator) failQueued() {
	for job := range o.queue {
		job.AddError(context.Canceled.Error())
		job.SetStatus(StatusFailed, "cancelled")
	}
}

func (o *Orchestrator) closeQueue() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.queue)
		o.mu.Unlock()
	})
}

// Submit queues a job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrStopped
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", cap(o.queue))
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// Jobs returns every submitted job in submission order.
func (o *Orchestrator) Jobs() []*Job {
	return o.jobs.All()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the import latency tracker.
func (o *Orchestrator) Stats() *Stats {
	return o.stats
}

// ImportAll imports every overlay of the publication and returns the jobs
// in spine order.
func ImportAll(ctx context.Context, cfg config.Config, pub *epub.Container, log *slog.Logger) ([]*Job, *Stats, error) {
	overlays := pub.Package.Overlays()
	o := NewOrchestrator(cfg, pub, len(overlays), log)
	o.Start(ctx)

	jobs := make([]*Job, 0, len(overlays))
	for _, ov := range overlays {
		job := NewJob(ov)
		if err := o.Submit(job); err != nil {
			o.Stop()
			return nil, nil, err
		}
		jobs = append(jobs, job)
	}
	o.Wait()

	if err := ctx.Err(); err != nil {
		return jobs, o.stats, err
	}
	return jobs, o.stats, nil
}

// Import imports the overlay narrating one spine item on the calling
// goroutine.
func Import(ctx context.Context, cfg config.Config, pub *epub.Container, spineItemID string, log *slog.Logger) (*Job, error) {
	ov, ok := pub.Package.Overlay(spineItemID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoOverlay, spineItemID)
	}

	job := NewJob(ov)
	NewWorker(pub, cfg.Context(), cfg.MaxDepth, nil, log).Process(ctx, job)
	if job.Model() == nil {
		snap := job.Snapshot()
		return job, fmt.Errorf("import %s: %s", ov.Href, strings.Join(snap.Progress.Errors, "; "))
	}
	return job, nil
}
