package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/mcqgest/internal/mcq"
)

// JobStatus represents the state of an extraction job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusExtracting JobStatus = "extracting_text"
	StatusChunking   JobStatus = "chunking"
	StatusCompleting JobStatus = "completing"
	StatusCompleted  JobStatus = "completed"
	StatusPartial    JobStatus = "partial"
	StatusEmpty      JobStatus = "empty"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions will happen.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusPartial, StatusEmpty, StatusFailed:
		return true
	}
	return false
}

// Job tracks one uploaded document from text extraction to an editable table.
type Job struct {
	mu sync.Mutex

	ID          string `json:"job_id"`
	Filename    string `json:"filename"`
	MaxChunkLen int    `json:"max_chunk_len,omitempty"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress JobProgress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	Method      string    `json:"method,omitempty"`
	TextLength  int       `json:"text_length"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData     []byte
	table        mcq.Table
	edited       bool
	failedChunks []int
	errors       []string
}

// NewJob registers an upload under a fresh id.
func NewJob(filename string, data []byte, maxChunkLen int) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Filename:    filename,
		MaxChunkLen: maxChunkLen,
		Status:      StatusQueued,
		Phase:       "queued",
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
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

// Cleanup drops finished jobs whose last update is older than the TTL and
// reports how many went. Jobs still in flight are kept however old.
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
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

// Report applies a pipeline progress update.
func (j *Job) Report(p Progress) {
	j.mu.Lock()
	defer j.mu.Unlock()
	switch p.Stage {
	case StageExtracting:
		j.Status, j.Phase = StatusExtracting, "extracting text"
	case StageChunking:
		j.Status, j.Phase = StatusChunking, "splitting into chunks"
	case StageCompleting:
		j.Status, j.Phase = StatusCompleting, fmt.Sprintf("completing chunk %d of %d", min(p.ChunksDone+1, p.TotalChunks), p.TotalChunks)
	}
	j.Progress.TotalChunks = p.TotalChunks
	j.Progress.ChunksDone = p.ChunksDone
	j.Progress.Records = p.Records
	j.UpdatedAt = time.Now()
}

// Finish stores the outcome of a run and moves the job to its terminal state.
func (j *Job) Finish(res Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.table = res.Table
	j.Method = res.Method
	j.TextLength = res.TextLength
	j.Progress.TotalChunks = res.Chunks
	j.Progress.ChunksDone = res.Chunks
	j.Progress.Records = res.Table.Len()
	j.failedChunks = res.FailedChunks()
	for _, e := range res.Failed {
		j.errors = append(j.errors, e.Error())
	}
	j.Progress.Errors = j.errors
	j.Status = res.Status()
	switch j.Status {
	case StatusEmpty:
		j.Phase = "no MCQs found"
	default:
		j.Phase = "done"
	}
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// Fail records err and marks the job failed. Records assembled before the
// failure stay available.
func (j *Job) Fail(phase string, partial mcq.Table, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.table = partial
	j.Progress.Records = partial.Len()
	j.errors = append(j.errors, err.Error())
	j.Progress.Errors = j.errors
	j.Status = StatusFailed
	j.Phase = phase
	j.fileData = nil
	j.UpdatedAt = time.Now()
}

// Table returns the job's current table.
func (j *Job) Table() mcq.Table {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.table
}

// ReplaceTable swaps in an edited table wholesale. It fails while the job is
// still running.
func (j *Job) ReplaceTable(t mcq.Table) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.Status.Terminal() {
		return fmt.Errorf("job %s is still %s", j.ID, j.Status)
	}
	j.table = t
	j.edited = true
	j.Progress.Records = t.Len()
	j.UpdatedAt = time.Now()
	return nil
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// JobProgress is the serialized progress of a job.
type JobProgress struct {
	TotalChunks  int      `json:"total_chunks"`
	ChunksDone   int      `json:"chunks_done"`
	Records      int      `json:"records"`
	FailedChunks []int    `json:"failed_chunks"`
	Errors       []string `json:"errors"`
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string      `json:"job_id"`
	Filename    string      `json:"filename"`
	Status      JobStatus   `json:"status"`
	Phase       string      `json:"phase"`
	Method      string      `json:"method,omitempty"`
	TextLength  int         `json:"text_length"`
	ContentHash string      `json:"content_hash,omitempty"`
	Edited      bool        `json:"edited"`
	Progress    JobProgress `json:"progress"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	failed := append([]int{}, j.failedChunks...)
	return JobSnapshot{
		ID:          j.ID,
		Filename:    j.Filename,
		Status:      j.Status,
		Phase:       j.Phase,
		Method:      j.Method,
		TextLength:  j.TextLength,
		ContentHash: j.ContentHash,
		Edited:      j.edited,
		Progress: JobProgress{
			TotalChunks:  j.Progress.TotalChunks,
			ChunksDone:   j.Progress.ChunksDone,
			Records:      j.Progress.Records,
			FailedChunks: failed,
			Errors:       errs,
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
