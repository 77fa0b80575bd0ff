package usecase

import (
	"context"
	"time"

	"github.com/fardannozami/wa-session-gateway/internal/dispatch"
	"github.com/fardannozami/wa-session-gateway/internal/session"
)

type BatchInput struct {
	Session string
	Target  string
	Items   []dispatch.Content
	// Delay between items; nil uses the configured default.
	Delay *time.Duration
	Async bool
}

type FanoutInput struct {
	Session  string
	Messages []dispatch.Request
	Delay    *time.Duration
	Async    bool
}

// BatchOutput carries either the finished result or, for async runs, the job.
type BatchOutput struct {
	Result *dispatch.BatchResult
	Job    *Job
}

type BatchDefaults struct {
	BatchDelay  time.Duration
	FanoutDelay time.Duration
}

type SendBatchUsecase struct {
	sessions   *session.Registry
	dispatcher *dispatch.Dispatcher
	jobs       *JobRunner
	defaults   BatchDefaults
}

func NewSendBatchUsecase(reg *session.Registry, d *dispatch.Dispatcher, jobs *JobRunner, defaults BatchDefaults) *SendBatchUsecase {
	return &SendBatchUsecase{sessions: reg, dispatcher: d, jobs: jobs, defaults: defaults}
}

func (u *SendBatchUsecase) Batch(ctx context.Context, in BatchInput) (*BatchOutput, error) {
	conn, err := lookup(u.sessions, in.Session)
	if err != nil {
		return nil, err
	}
	delay := pickDelay(in.Delay, u.defaults.BatchDelay)

	if in.Async {
		// Validate synchronously so malformed batches are rejected before a job exists.
		if err := dispatch.ValidateBatch(in.Target, in.Items); err != nil {
			return nil, err
		}
		job := u.jobs.Submit(in.Session, "batch", len(in.Items), func(ctx context.Context) (dispatch.BatchResult, error) {
			return u.dispatcher.SendBatch(ctx, conn, in.Target, in.Items, delay)
		})
		return &BatchOutput{Job: &job}, nil
	}

	res, err := u.dispatcher.SendBatch(ctx, conn, in.Target, in.Items, delay)
	if err != nil {
		return nil, err
	}
	return &BatchOutput{Result: &res}, nil
}

func (u *SendBatchUsecase) Fanout(ctx context.Context, in FanoutInput) (*BatchOutput, error) {
	conn, err := lookup(u.sessions, in.Session)
	if err != nil {
		return nil, err
	}
	delay := pickDelay(in.Delay, u.defaults.FanoutDelay)

	if in.Async {
		if err := dispatch.Validate(in.Messages); err != nil {
			return nil, err
		}
		job := u.jobs.Submit(in.Session, "fanout", len(in.Messages), func(ctx context.Context) (dispatch.BatchResult, error) {
			return u.dispatcher.SendFanout(ctx, conn, in.Messages, delay)
		})
		return &BatchOutput{Job: &job}, nil
	}

	res, err := u.dispatcher.SendFanout(ctx, conn, in.Messages, delay)
	if err != nil {
		return nil, err
	}
	return &BatchOutput{Result: &res}, nil
}

func pickDelay(d *time.Duration, fallback time.Duration) time.Duration {
	if d == nil {
		return fallback
	}
	return *d
}

type GetJobUsecase struct {
	jobs *JobRunner
}

func NewGetJobUsecase(jobs *JobRunner) *GetJobUsecase {
	return &GetJobUsecase{jobs: jobs}
}

func (u *GetJobUsecase) Execute(ctx context.Context, id string) (*Job, error) {
	job, err := u.jobs.Get(id)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
