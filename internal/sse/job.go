package sse

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"mailmind/internal/logger"
	"mailmind/internal/service"
)

// ErrJobRunning is returned when the user already has a job of the same kind.
var ErrJobRunning = errors.New("job already running")

type JobKind string

const (
	JobRefresh     JobKind = "refresh"
	JobClassifyAll JobKind = "classify_all"
)

type Job struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Kind      JobKind   `json:"kind"`
	StartedAt time.Time `json:"started_at"`
}

// JobFunc is the body of a background job. progress forwards service
// progress to the user's streams.
type JobFunc func(ctx context.Context, progress service.ProgressFunc) (any, error)

type progressEvent struct {
	JobID string `json:"job_id"`
	service.Progress
}

type doneEvent struct {
	JobID  string  `json:"job_id"`
	Kind   JobKind `json:"kind"`
	Result any     `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// JobTracker runs long operations off the request goroutine and reports
// their progress over SSE. One job per kind per user may run at a time.
type JobTracker struct {
	jobs    map[string]*Job
	jobsMux sync.Mutex
	wg      sync.WaitGroup

	sseManager *SSEManager
	logger     *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewJobTracker(sseManager *SSEManager, logger *logger.Logger) *JobTracker {
	ctx, cancel := context.WithCancel(context.Background())

	return &JobTracker{
		jobs:       make(map[string]*Job),
		sseManager: sseManager,
		logger:     logger.With("jobs"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func jobKey(userID string, kind JobKind) string {
	return userID + "/" + string(kind)
}

// Start launches run in the background and returns its job handle.
func (t *JobTracker) Start(userID string, kind JobKind, run JobFunc) (*Job, error) {
	t.jobsMux.Lock()
	defer t.jobsMux.Unlock()

	key := jobKey(userID, kind)
	if running, exists := t.jobs[key]; exists {
		return running, ErrJobRunning
	}

	job := &Job{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		StartedAt: time.Now(),
	}
	t.jobs[key] = job

	t.wg.Add(1)
	go t.run(key, job, run)

	t.logger.Infof("started %s job %s for %s", kind, job.ID, userID)
	return job, nil
}

func (t *JobTracker) run(key string, job *Job, run JobFunc) {
	defer t.wg.Done()

	result, err := run(t.ctx, func(p service.Progress) {
		t.sseManager.BroadcastToUser(job.UserID, progressEventType(p.Stage), progressEvent{
			JobID:    job.ID,
			Progress: p,
		})
	})

	t.jobsMux.Lock()
	delete(t.jobs, key)
	t.jobsMux.Unlock()

	done := doneEvent{JobID: job.ID, Kind: job.Kind, Result: result}
	if err != nil {
		t.logger.Errorf("%s job %s failed: %v", job.Kind, job.ID, err)
		done.Error = err.Error()
	} else {
		t.logger.Infof("%s job %s finished", job.Kind, job.ID)
	}
	t.sseManager.BroadcastToUser(job.UserID, EventJobDone, done)
}

func progressEventType(stage string) string {
	if stage == service.StageClassify {
		return EventAIProgress
	}
	return EventFetchProgress
}

// Running returns the user's active job of the given kind, if any.
func (t *JobTracker) Running(userID string, kind JobKind) (*Job, bool) {
	t.jobsMux.Lock()
	defer t.jobsMux.Unlock()

	job, exists := t.jobs[jobKey(userID, kind)]
	return job, exists
}

// Wait blocks until every started job has finished.
func (t *JobTracker) Wait() {
	t.wg.Wait()
}

// Stop cancels running jobs and waits for them to return.
func (t *JobTracker) Stop() {
	t.cancel()
	t.wg.Wait()
}
