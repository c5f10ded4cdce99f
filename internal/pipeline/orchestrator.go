package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/bookgest/internal/abx"
	"github.com/dgallion1/bookgest/internal/chunker"
	"github.com/dgallion1/bookgest/internal/classify"
	"github.com/dgallion1/bookgest/internal/config"
	"github.com/dgallion1/bookgest/internal/parser"
)

// Orchestrator manages the document ingestion pipeline.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	dedup   *DedupIndex
	timings *PhaseTimings
	worker  *Worker
	log     *slog.Logger
	cfg     config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, log *slog.Logger) *Orchestrator {
	var dedup *DedupIndex
	if !cfg.AllowDuplicates {
		dedup = NewDedupIndex()
	}
	timings := NewPhaseTimings(cfg.JobTTL)
	engine := abx.New(abx.Options{Mode: cfg.Mode()}, log.With("component", "abx"))
	chunkCfg := chunker.Config{
		ChunkSize:    cfg.DefaultChunkSize,
		ChunkOverlap: cfg.DefaultChunkOverlap,
		MinChunk:     100,
	}
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		dedup:   dedup,
		timings: timings,
		worker: NewWorker(
			parser.Options{ABX: engine, PDFFallback: cfg.PDFFallbackPdftotext},
			classify.New(cfg.ClassifierWindow),
			dedup,
			log,
			chunkCfg,
			cfg.JobTimeout,
			timings,
		),
		log: log,
		cfg: cfg,
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
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.worker.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("job queue is full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// DeleteJob forgets a job. A completed job also releases its fingerprint so
// the same text can be ingested again.
func (o *Orchestrator) DeleteJob(id string) bool {
	job := o.jobs.Delete(id)
	if job == nil {
		return false
	}
	snap := job.Snapshot()
	if o.dedup != nil && snap.Fingerprint != "" && snap.DuplicateOf == "" {
		o.dedup.Forget(snap.Fingerprint)
	}
	o.log.Info("job deleted", "job_id", id, "status", snap.Status)
	return true
}

// Stats returns per-status job counts.
func (o *Orchestrator) Stats() map[JobStatus]int {
	return o.jobs.CountByStatus()
}

// Timings returns recent per-phase durations.
func (o *Orchestrator) Timings() map[string]PhaseSnapshot {
	return o.timings.Snapshot()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Parse processes one document synchronously, outside the queue.
func (o *Orchestrator) Parse(ctx context.Context, filename string, data []byte) (*Result, error) {
	return o.worker.Run(ctx, filename, data)
}
