package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/bookgest/internal/abx"
	"github.com/dgallion1/bookgest/internal/chunker"
	"github.com/dgallion1/bookgest/internal/classify"
	"github.com/dgallion1/bookgest/internal/export"
	"github.com/dgallion1/bookgest/internal/parser"
)

// Worker processes a single document job. Workers share read-only
// collaborators and may run concurrently.
type Worker struct {
	parseOpts  parser.Options
	classifier *classify.Classifier
	dedup      *DedupIndex
	log        *slog.Logger
	chunkCfg   chunker.Config
	timeout    time.Duration
	timings    *PhaseTimings
}

func NewWorker(parseOpts parser.Options, classifier *classify.Classifier, dedup *DedupIndex, log *slog.Logger, chunkCfg chunker.Config, timeout time.Duration, timings *PhaseTimings) *Worker {
	return &Worker{
		parseOpts:  parseOpts,
		classifier: classifier,
		dedup:      dedup,
		log:        log,
		chunkCfg:   chunkCfg,
		timeout:    timeout,
		timings:    timings,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	start := time.Now()
	pr, err := w.parse(ctx, job.Filename, job.FileData())
	w.timings.Observe(PhaseParse, time.Since(start))
	job.releaseFileData()
	if err != nil {
		var pf *abx.ParseFailure
		if errors.As(err, &pf) {
			log.Error("parse failure", "book", pf.BookName, "error", pf.Err)
		} else {
			log.Error("parse failed", "error", err)
		}
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	b := pr.Book
	job.setTitle(b.Metadata.BookName)
	log.Info("parsed document",
		"book", b.Metadata.BookName,
		"pages", len(b.Pages),
		"chapters", len(b.Chapters),
		"diagnostics", len(pr.Diagnostics),
	)

	// Phase 1.5: Dedup check on the parsed text. A nil index admits everything.
	if w.dedup != nil && b.FullText != "" {
		fp := Fingerprint(b.FullText)
		if owner, ok := w.dedup.Claim(fp, job.ID); !ok {
			log.Info("duplicate document, skipping", "duplicate_of", owner)
			job.setFingerprint(fp, owner)
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		}
		job.setFingerprint(fp, "")
	}

	// Phase 2: Classify
	job.SetStatus(StatusClassifying, "classifying")
	start = time.Now()
	cls := w.classifier.Score(b.Metadata, b.FullText)
	w.timings.Observe(PhaseClassify, time.Since(start))
	log.Info("classified document", "category", cls.Category)

	// Phase 3: Chunk
	job.SetStatus(StatusChunking, "chunking")
	start = time.Now()
	passages := chunker.ChunkBook(b, w.chunkCfg)
	w.timings.Observe(PhaseChunk, time.Since(start))
	log.Info("chunked document", "passages", len(passages))

	job.SetResult(&Result{
		Book:           b,
		Classification: cls,
		Diagnostics:    pr.Diagnostics,
		Passages:       passages,
		Record:         export.ToRecord(b, cls.Category),
	})
	job.SetStatus(StatusCompleted, "done")
}

// Run parses, classifies and chunks one document synchronously. It skips
// the dedup index.
func (w *Worker) Run(ctx context.Context, filename string, data []byte) (*Result, error) {
	pr, err := w.parse(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	b := pr.Book
	cls := w.classifier.Score(b.Metadata, b.FullText)
	return &Result{
		Book:           b,
		Classification: cls,
		Diagnostics:    pr.Diagnostics,
		Passages:       chunker.ChunkBook(b, w.chunkCfg),
		Record:         export.ToRecord(b, cls.Category),
	}, nil
}

// parse runs the format parser on its own goroutine so the job deadline can
// abandon it. An abandoned parse finishes in the background and its result
// is discarded.
func (w *Worker) parse(ctx context.Context, filename string, data []byte) (*parser.Result, error) {
	p, err := parser.ForFile(filename, w.parseOpts)
	if err != nil {
		return nil, err
	}

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	type outcome struct {
		res *parser.Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := p.Parse(bytes.NewReader(data), filename)
		ch <- outcome{res, err}
	}()

	select {
	case out := <-ch:
		return out.res, out.err
	case <-ctx.Done():
		return nil, fmt.Errorf("parse %s: %w", filename, ctx.Err())
	}
}
