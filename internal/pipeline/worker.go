package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/smilq/internal/epub"
	"github.com/dgallion1/smilq/internal/overlay"
	"github.com/dgallion1/smilq/internal/parser"
)

// Worker imports a single overlay document.
type Worker struct {
	pub      *epub.Container
	ctx      *overlay.Context
	maxDepth int
	stats    *Stats
	log      *slog.Logger
}

func NewWorker(pub *epub.Container, octx *overlay.Context, maxDepth int, stats *Stats, log *slog.Logger) *Worker {
	return &Worker{
		pub:      pub,
		ctx:      octx,
		maxDepth: maxDepth,
		stats:    stats,
		log:      log,
	}
}

// Process reads, parses and imports the job's SMIL document.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "spine_item", job.SpineItemID, "smil", job.Href)
	start := time.Now()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Path)
	if err != nil {
		w.fail(log, job, "parsing", err)
		return
	}

	data, err := w.pub.ReadFile(job.Path)
	if err != nil {
		w.fail(log, job, "parsing", fmt.Errorf("read %s: %w", job.Path, err))
		return
	}
	job.SetContentHash(ContentHashHex(data))

	doc, err := p.Parse(bytes.NewReader(data), job.Href)
	if err != nil {
		w.fail(log, job, "parsing", fmt.Errorf("parse: %w", err))
		return
	}
	if doc.ID == "" {
		doc.ID = job.SMILID
	}
	doc.SpineItemID = job.SpineItemID
	doc.Href = job.Href
	if doc.Duration == nil && job.declared != nil {
		doc.Duration = *job.declared
	}

	if err := ctx.Err(); err != nil {
		w.fail(log, job, "parsing", err)
		return
	}

	// Phase 2: Import
	job.SetStatus(StatusImporting, "importing")
	collector := &overlay.Collector{}
	m, err := overlay.FromDTO(doc, overlay.Options{
		Context:  w.ctx,
		Resolver: w.pub.Package,
		Sink:     overlay.Tee(collector, overlay.SlogSink(log)),
		MaxDepth: w.maxDepth,
	})
	if err != nil {
		w.fail(log, job, "importing", err)
		return
	}

	elapsed := time.Since(start)
	if w.stats != nil {
		w.stats.Record(elapsed.Milliseconds())
	}

	job.SetResult(m, collector.Diagnostics)
	log.Info("overlay imported",
		"status", job.Snapshot().Status,
		"nodes", m.Len(),
		"duration_ms", m.DurationMillisecondsCalculated(),
		"diagnostics", len(collector.Diagnostics),
		"elapsed", elapsed,
	)
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase string, err error) {
	log.Error("overlay import failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}
