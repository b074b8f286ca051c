package batch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rjldg/speech-transcribe/internal/domain"
	"github.com/rjldg/speech-transcribe/internal/speech"
)

// StatusFetcher fetches the current record of a submitted job.
// *speech.Client satisfies it.
type StatusFetcher interface {
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
}

// PollTimeoutError reports that the deadline passed while the job was
// still non-terminal. The job keeps running server-side; the caller may
// resume polling later with the same job id.
type PollTimeoutError struct {
	JobID   string
	Elapsed time.Duration
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("job %s not terminal after %s of polling", e.JobID, e.Elapsed)
}

// IntervalPolicy controls the cadence between status polls. Batch
// services discourage tight polling, so the interval only ever grows,
// capped at the ceiling.
type IntervalPolicy struct {
	Initial    time.Duration
	Multiplier float64
	Ceiling    time.Duration
}

func (p IntervalPolicy) normalized() IntervalPolicy {
	if p.Initial <= 0 {
		p.Initial = time.Minute
	}
	if p.Multiplier <= 1.0 {
		p.Multiplier = 1.5
	}
	if p.Ceiling <= 0 {
		p.Ceiling = 10 * time.Minute
	}
	if p.Initial > p.Ceiling {
		p.Initial = p.Ceiling
	}
	return p
}

func (p IntervalPolicy) next(current time.Duration) time.Duration {
	grown := time.Duration(float64(current) * p.Multiplier)
	if grown > p.Ceiling {
		return p.Ceiling
	}
	return grown
}

type PollerConfig struct {
	Interval IntervalPolicy
	// Deadline bounds the total accumulated wait across the session.
	Deadline time.Duration
	Sleep    speech.SleepFunc
	Logger   *log.Logger
}

// Poller drives one submitted job through its status state machine.
// A Poller instance owns exactly one polling session at a time and
// shares no state with other sessions.
type Poller struct {
	fetcher  StatusFetcher
	interval IntervalPolicy
	deadline time.Duration
	sleep    speech.SleepFunc
	logger   *log.Logger
}

func NewPoller(fetcher StatusFetcher, config PollerConfig) *Poller {
	if config.Deadline <= 0 {
		config.Deadline = 3 * time.Hour
	}
	if config.Sleep == nil {
		config.Sleep = speech.SleepContext
	}
	return &Poller{
		fetcher:  fetcher,
		interval: config.Interval.normalized(),
		deadline: config.Deadline,
		sleep:    config.Sleep,
		logger:   config.Logger,
	}
}

// PollUntilTerminal fetches the job status until it reaches a terminal
// state or the accumulated wait reaches the deadline. The returned job
// carries the total time waited. Cancellation is checked before every
// sleep and interrupts the sleep itself.
func (p *Poller) PollUntilTerminal(ctx context.Context, jobID string) (*domain.Job, error) {
	interval := p.interval.Initial
	var elapsed time.Duration

	for elapsed < p.deadline {
		job, err := p.fetcher.GetJob(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("fetch status of job %s: %w", jobID, err)
		}
		job.Waited = elapsed

		if job.Status.Terminal() {
			if p.logger != nil {
				p.logger.Printf("job %s reached terminal status %s after %s", jobID, job.Status, elapsed)
			}
			return job, nil
		}
		if p.logger != nil {
			p.logger.Printf("job %s status %s, next poll in %s", jobID, job.Status, interval)
		}

		if err := p.sleep(ctx, interval); err != nil {
			return nil, err
		}
		elapsed += interval
		interval = p.interval.next(interval)
	}

	return nil, &PollTimeoutError{JobID: jobID, Elapsed: elapsed}
}
