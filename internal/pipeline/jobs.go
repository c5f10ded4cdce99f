package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/dgallion1/bookgest/internal/abx"
	"github.com/dgallion1/bookgest/internal/book"
	"github.com/dgallion1/bookgest/internal/chunker"
	"github.com/dgallion1/bookgest/internal/classify"
	"github.com/dgallion1/bookgest/internal/export"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusParsing     JobStatus = "parsing"
	StatusClassifying JobStatus = "classifying"
	StatusChunking    JobStatus = "chunking"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
	StatusDupSkipped  JobStatus = "duplicate_skipped"
)

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusDupSkipped
}

// Result is everything produced for one document.
type Result struct {
	Book           *book.Book        `json:"-"`
	Classification classify.Result   `json:"classification"`
	Diagnostics    abx.Diagnostics   `json:"diagnostics"`
	Passages       []chunker.Passage `json:"passages"`
	Record         *export.Record    `json:"record"`
}

// Job tracks the state of a single document ingestion.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   *Result
	errors   []string
	done     chan struct{}
}

// Progress tracks processing progress.
type Progress struct {
	TotalPages    int      `json:"total_pages"`
	TotalChapters int      `json:"total_chapters"`
	TotalPassages int      `json:"total_passages"`
	Diagnostics   int      `json:"diagnostics"`
	Errors        []string `json:"errors"`
}

// NewJob creates a queued job for an upload.
func NewJob(filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:          NewJobID(),
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
		done:        make(chan struct{}),
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

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Delete removes a job and returns it, or nil if it was not tracked.
func (s *JobStore) Delete(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[id]
	delete(s.jobs, id)
	return job
}

// CountByStatus returns the number of tracked jobs per status.
func (s *JobStore) CountByStatus() map[JobStatus]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[JobStatus]int)
	for _, job := range s.jobs {
		job.mu.Lock()
		counts[job.Status]++
		job.mu.Unlock()
	}
	return counts
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically. Entering a terminal status
// releases anyone waiting on Done.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	if status.Terminal() && j.done != nil {
		select {
		case <-j.done:
		default:
			close(j.done)
		}
	}
}

// Done is closed once the job reaches a terminal status. It is nil for jobs
// not created by NewJob.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetResult stores the processing result and its counts.
func (j *Job) SetResult(r *Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = r
	if r.Book != nil {
		j.Progress.TotalPages = len(r.Book.Pages)
		j.Progress.TotalChapters = len(r.Book.Chapters)
	}
	j.Progress.TotalPassages = len(r.Passages)
	j.Progress.Diagnostics = len(r.Diagnostics)
	j.UpdatedAt = time.Now()
}

// Result returns the processing result, or nil before completion.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

func (j *Job) setTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Title == "" {
		j.Title = title
	}
}

func (j *Job) setFingerprint(fp, duplicateOf string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Fingerprint = fp
	j.DuplicateOf = duplicateOf
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once it has been parsed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		ContentHash: j.ContentHash,
		Fingerprint: j.Fingerprint,
		DuplicateOf: j.DuplicateOf,
		Progress:    p,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// Fingerprint identifies parsed text independently of the upload encoding.
func Fingerprint(text string) string {
	h := blake3.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// DedupIndex remembers which job first produced each fingerprint.
type DedupIndex struct {
	mu   sync.Mutex
	seen map[string]string
}

func NewDedupIndex() *DedupIndex {
	return &DedupIndex{seen: make(map[string]string)}
}

// Claim records jobID as the owner of fp. If fp is already owned by another
// job, that job's ID is returned with ok=false.
func (d *DedupIndex) Claim(fp, jobID string) (owner string, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, found := d.seen[fp]; found && existing != jobID {
		return existing, false
	}
	d.seen[fp] = jobID
	return jobID, true
}

// Forget releases fp so a later upload is processed again.
func (d *DedupIndex) Forget(fp string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, fp)
}
