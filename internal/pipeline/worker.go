package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/mcqgest/internal/source"
)

// Worker runs the pipeline for one job at a time.
type Worker struct {
	pipeline *Pipeline
	log      *slog.Logger
}

func NewWorker(p *Pipeline, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{pipeline: p, log: log}
}

// Process runs the full extraction pipeline for a job and stores the outcome
// on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()

	doc, err := source.FromBytes(job.Filename, job.FileData())
	if err != nil {
		log.Error("unsupported document", "error", err)
		job.Fail("validating", job.Table(), err)
		return
	}

	p := w.pipeline
	if job.MaxChunkLen > 0 {
		p = p.WithMaxLen(job.MaxChunkLen)
	}

	res, err := p.Run(ctx, doc, job.Report)
	if err != nil {
		phase := "completing"
		var ce *ChunkError
		if !errors.As(err, &ce) {
			phase = "extracting text"
		}
		log.Error("job failed", "phase", phase, "error", err, "records", res.Table.Len())
		job.Fail(phase, res.Table, err)
		return
	}

	job.Finish(res)
	log.Info("job finished",
		"status", res.Status(),
		"records", res.Table.Len(),
		"chunks", res.Chunks,
		"failed_chunks", len(res.Failed),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
}
