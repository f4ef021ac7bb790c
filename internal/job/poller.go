package job

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"storyboard/server/internal/model"
	"storyboard/server/internal/provider"
)

// State is the poller's position in the job lifecycle.
type State string

const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// DefaultInterval is the fixed delay between status queries.
const DefaultInterval = 10 * time.Second

// ErrDeadlineExceeded reports that the optional attempt ceiling was
// reached before the job turned terminal.
var ErrDeadlineExceeded = errors.New("video generation did not finish in time")

// StatusClient is the slice of the generation client the poller needs.
type StatusClient interface {
	PollVideo(ctx context.Context, h model.JobHandle) (model.JobHandle, error)
}

// Poller owns the asynchronous lifecycle of a submitted video job: it
// re-fetches the handle at a fixed interval until a terminal state is
// observed. A transport error during a poll is fatal for the whole
// generation action; there is no per-attempt retry.
type Poller struct {
	client   StatusClient
	interval time.Duration
	log      *slog.Logger

	// maxAttempts bounds the number of status queries; zero disables the
	// ceiling and trusts the remote job to terminate eventually.
	maxAttempts int

	// after is the clock. Tests replace it to simulate elapsed time.
	after func(d time.Duration) <-chan time.Time

	// onPoll, when set, observes each attempt before its status query.
	onPoll func(attempt int)
}

func NewPoller(client StatusClient, interval time.Duration, maxAttempts int, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		client:      client,
		interval:    interval,
		maxAttempts: maxAttempts,
		log:         logger,
		after:       time.After,
	}
}

// SetClock replaces the wait source. Intended for tests.
func (p *Poller) SetClock(after func(d time.Duration) <-chan time.Time) {
	p.after = after
}

// SetOnPoll registers an observer invoked once per status query.
func (p *Poller) SetOnPoll(fn func(attempt int)) {
	p.onPoll = fn
}

// Wait drives the handle to a terminal state and returns its result.
// The handle is replaced wholesale on every status fetch; the one
// passed in is never mutated.
func (p *Poller) Wait(ctx context.Context, h model.JobHandle) (model.VideoResult, error) {
	state := StateSubmitted
	attempt := 0
	for !h.Done {
		state = StatePolling
		if p.maxAttempts > 0 && attempt >= p.maxAttempts {
			p.log.Warn("job_poll_deadline", "operation", h.Token, "attempts", attempt)
			return model.VideoResult{}, ErrDeadlineExceeded
		}
		select {
		case <-ctx.Done():
			return model.VideoResult{}, ctx.Err()
		case <-p.after(p.interval):
		}
		attempt++
		if p.onPoll != nil {
			p.onPoll(attempt)
		}
		next, err := p.client.PollVideo(ctx, h)
		if err != nil {
			p.log.Error("job_poll_failed", "operation", h.Token, "attempt", attempt, "error", err)
			return model.VideoResult{}, err
		}
		h = next
	}

	if h.Failure != "" {
		state = StateFailed
		p.log.Info("job_finished", "operation", h.Token, "state", state, "attempts", attempt)
		return model.VideoResult{}, &provider.Error{Op: "job", Message: h.Failure}
	}
	if h.Result == nil {
		state = StateFailed
		p.log.Info("job_finished", "operation", h.Token, "state", state, "attempts", attempt)
		return model.VideoResult{}, &provider.Error{Op: "job", Message: "Video generation operation finished without a response."}
	}
	state = StateSucceeded
	p.log.Info("job_finished", "operation", h.Token, "state", state, "attempts", attempt)
	return *h.Result, nil
}
