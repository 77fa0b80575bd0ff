package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/dispatch"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

var ErrJobNotFound = errors.New("job not found")

type JobStatus string

const (
	JobRunning  JobStatus = "running"
	JobFinished JobStatus = "finished"
	JobFailed   JobStatus = "failed"
)

type Job struct {
	ID         string
	Session    string
	Mode       string
	Status     JobStatus
	Items      int
	Result     *dispatch.BatchResult
	Error      string
	CreatedAt  time.Time
	FinishedAt time.Time
}

// JobRunner runs batch sends in the background. Running jobs are always kept;
// finished ones live in an LRU until evicted.
type JobRunner struct {
	ctx context.Context
	log zerolog.Logger
	wg  sync.WaitGroup

	mu       sync.Mutex
	running  map[string]*Job
	finished *lru.Cache[string, Job]
}

// NewJobRunner ties every job to ctx; cancelling it aborts remaining items.
func NewJobRunner(ctx context.Context, size int, logger zerolog.Logger) (*JobRunner, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, Job](size)
	if err != nil {
		return nil, err
	}
	return &JobRunner{
		ctx:      ctx,
		log:      logger,
		running:  make(map[string]*Job),
		finished: cache,
	}, nil
}

func (r *JobRunner) Submit(session, mode string, items int, run func(ctx context.Context) (dispatch.BatchResult, error)) Job {
	job := &Job{
		ID:        uuid.NewString(),
		Session:   session,
		Mode:      mode,
		Status:    JobRunning,
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.running[job.ID] = job
	snapshot := *job
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		res, err := run(r.ctx)
		r.finish(job.ID, res, err)
	}()

	r.log.Info().Str("job", job.ID).Str("session", session).Str("mode", mode).Int("items", items).Msg("job submitted")
	return snapshot
}

func (r *JobRunner) finish(id string, res dispatch.BatchResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.running[id]
	if !ok {
		return
	}
	delete(r.running, id)

	job.FinishedAt = time.Now().UTC()
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
	} else {
		job.Status = JobFinished
		job.Result = &res
	}
	r.finished.Add(id, *job)
}

func (r *JobRunner) Get(id string) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.running[id]; ok {
		return *job, nil
	}
	if job, ok := r.finished.Get(id); ok {
		return job, nil
	}
	return Job{}, ErrJobNotFound
}

// Wait blocks until every submitted job has returned.
func (r *JobRunner) Wait() {
	r.wg.Wait()
}
