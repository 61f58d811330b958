package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/mcqgest/internal/chunker"
	"github.com/dgallion1/mcqgest/internal/extract"
	"github.com/dgallion1/mcqgest/internal/mcq"
	"github.com/dgallion1/mcqgest/internal/source"
)

// ChunkError identifies the chunk whose completion failed.
type ChunkError struct {
	Index int // 0-based
	Total int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d/%d: %v", e.Index+1, e.Total, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Stage names reported through Progress.
const (
	StageExtracting = "extracting_text"
	StageChunking   = "chunking"
	StageCompleting = "completing"
)

// Progress is reported after every step of a run.
type Progress struct {
	Stage       string
	TotalChunks int
	ChunksDone  int
	Records     int
}

// Result is the outcome of one run.
type Result struct {
	Table      mcq.Table
	TextLength int
	Chunks     int
	Method     string
	Failed     []*ChunkError
}

// Empty reports "no MCQs found". It is not an error.
func (r Result) Empty() bool { return r.Table.Empty() }

// Status maps the result onto the terminal job states.
func (r Result) Status() JobStatus {
	switch {
	case len(r.Failed) > 0:
		return StatusPartial
	case r.Table.Empty():
		return StatusEmpty
	default:
		return StatusCompleted
	}
}

// FailedChunks returns the 0-based indexes of chunks that failed.
func (r Result) FailedChunks() []int {
	out := make([]int, len(r.Failed))
	for i, e := range r.Failed {
		out[i] = e.Index
	}
	return out
}

// Options tune a Pipeline.
type Options struct {
	MaxLen          int
	ContinueOnError bool
}

// Pipeline turns one document into an MCQ table: extract text, split it,
// complete each chunk in order, parse each reply and renumber.
type Pipeline struct {
	extractor source.Extractor
	completer extract.Completer
	opts      Options
	log       *slog.Logger
}

func New(extractor source.Extractor, completer extract.Completer, opts Options, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if opts.MaxLen <= 0 {
		opts.MaxLen = chunker.DefaultMaxLen
	}
	return &Pipeline{extractor: extractor, completer: completer, opts: opts, log: log}
}

// WithMaxLen returns a copy of p that splits text into chunks of n characters.
func (p *Pipeline) WithMaxLen(n int) *Pipeline {
	cp := *p
	if n > 0 {
		cp.opts.MaxLen = n
	}
	return &cp
}

// MaxLen is the chunk length in characters.
func (p *Pipeline) MaxLen() int { return p.opts.MaxLen }

// Run processes doc sequentially. progress may be nil.
//
// Extraction failures abort the run. A completion failure aborts with a
// *ChunkError unless ContinueOnError is set, in which case the chunk is
// recorded in Result.Failed and the run goes on; if every chunk fails the run
// still returns an error.
func (p *Pipeline) Run(ctx context.Context, doc source.Document, progress func(Progress)) (Result, error) {
	if progress == nil {
		progress = func(Progress) {}
	}
	log := p.log.With("document", doc.Name)
	start := time.Now()

	progress(Progress{Stage: StageExtracting})
	ext, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		return Result{}, fmt.Errorf("extract text: %w", err)
	}
	for _, w := range ext.Warnings {
		log.Warn("extraction warning", "warning", w)
	}

	res := Result{TextLength: len([]rune(ext.Text)), Method: ext.Method}
	if ext.Empty() {
		log.Info("no text extracted", "method", ext.Method)
		return res, nil
	}

	progress(Progress{Stage: StageChunking})
	chunks := chunker.Split(ext.Text, p.opts.MaxLen)
	res.Chunks = len(chunks)
	log.Info("chunked text", "chunks", len(chunks), "max_len", p.opts.MaxLen, "est_tokens", chunker.EstimateTokens(ext.Text))

	var asm mcq.Assembler
	for _, c := range chunks {
		progress(Progress{Stage: StageCompleting, TotalChunks: len(chunks), ChunksDone: c.Index, Records: asm.Len()})

		chunkStart := time.Now()
		reply, err := p.completer.Complete(ctx, c.Text)
		if err != nil {
			cerr := &ChunkError{Index: c.Index, Total: len(chunks), Err: err}
			if !p.opts.ContinueOnError || ctx.Err() != nil {
				log.Error("completion failed", "chunk", c.Index, "error", err)
				res.Table = asm.Table()
				return res, cerr
			}
			log.Warn("completion failed, continuing", "chunk", c.Index, "error", err)
			res.Failed = append(res.Failed, cerr)
			continue
		}

		parsed := mcq.Parse(reply)
		added := asm.Append(parsed)
		log.Debug("chunk parsed",
			"chunk", c.Index,
			"reply_chars", len(reply),
			"matched", len(parsed),
			"added", added,
			"duration_ms", time.Since(chunkStart).Milliseconds(),
		)
	}

	res.Table = asm.Table()
	progress(Progress{Stage: StageCompleting, TotalChunks: len(chunks), ChunksDone: len(chunks), Records: asm.Len()})

	if len(res.Failed) == len(chunks) {
		last := res.Failed[len(res.Failed)-1]
		return res, fmt.Errorf("all %d chunks failed: %w", len(chunks), last)
	}

	log.Info("pipeline complete",
		"records", res.Table.Len(),
		"chunks", len(chunks),
		"failed_chunks", len(res.Failed),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// IsChunkError reports whether err carries a *ChunkError and returns it.
func IsChunkError(err error) (*ChunkError, bool) {
	var ce *ChunkError
	ok := errors.As(err, &ce)
	return ce, ok
}
