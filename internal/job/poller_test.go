package job

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"storyboard/server/internal/model"
	"storyboard/server/internal/provider"
)

// scriptedClient replays a fixed sequence of status responses.
type scriptedClient struct {
	responses []model.JobHandle
	errs      []error
	calls     int
}

func (s *scriptedClient) PollVideo(ctx context.Context, h model.JobHandle) (model.JobHandle, error) {
	i := s.calls
	s.calls++
	if i >= len(s.responses) {
		return model.JobHandle{}, errors.New("unexpected extra poll")
	}
	if s.errs != nil && s.errs[i] != nil {
		return model.JobHandle{}, s.errs[i]
	}
	return s.responses[i], nil
}

// instantClock fires immediately and counts waits.
type instantClock struct{ waits int }

func (c *instantClock) after(d time.Duration) <-chan time.Time {
	c.waits++
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func newTestPoller(client StatusClient, maxAttempts int) (*Poller, *instantClock) {
	p := NewPoller(client, DefaultInterval, maxAttempts, slog.Default())
	clock := &instantClock{}
	p.SetClock(clock.after)
	return p, clock
}

func TestWaitPollsUntilResult(t *testing.T) {
	result := &model.VideoResult{DownloadURI: "https://dl.example/video"}
	client := &scriptedClient{responses: []model.JobHandle{
		{Token: "op-1", Done: false},
		{Token: "op-1", Done: false},
		{Token: "op-1", Done: true, Result: result},
	}}
	p, clock := newTestPoller(client, 0)

	got, err := p.Wait(context.Background(), model.JobHandle{Token: "op-1"})
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got.DownloadURI != result.DownloadURI {
		t.Fatalf("result = %+v", got)
	}
	if client.calls != 3 {
		t.Fatalf("status queries = %d, want 3", client.calls)
	}
	if clock.waits != 3 {
		t.Fatalf("waits = %d, want 3", clock.waits)
	}
}

func TestWaitDoneWithoutResultFailsImmediately(t *testing.T) {
	client := &scriptedClient{responses: []model.JobHandle{
		{Token: "op-2", Done: true},
	}}
	p, _ := newTestPoller(client, 0)

	_, err := p.Wait(context.Background(), model.JobHandle{Token: "op-2"})
	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want provider error", err)
	}
	if client.calls != 1 {
		t.Fatalf("status queries = %d, want 1", client.calls)
	}
}

func TestWaitTerminalHandleNeedsNoQuery(t *testing.T) {
	client := &scriptedClient{}
	p, clock := newTestPoller(client, 0)

	got, err := p.Wait(context.Background(), model.JobHandle{
		Token:  "op-3",
		Done:   true,
		Result: &model.VideoResult{DownloadURI: "u"},
	})
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got.DownloadURI != "u" {
		t.Fatalf("result = %+v", got)
	}
	if client.calls != 0 || clock.waits != 0 {
		t.Fatalf("calls = %d waits = %d, want 0/0", client.calls, clock.waits)
	}
}

func TestWaitExplicitFailure(t *testing.T) {
	client := &scriptedClient{responses: []model.JobHandle{
		{Token: "op-4", Done: true, Failure: "quota exhausted"},
	}}
	p, _ := newTestPoller(client, 0)

	_, err := p.Wait(context.Background(), model.JobHandle{Token: "op-4"})
	if err == nil || err.Error() != "quota exhausted" {
		t.Fatalf("err = %v, want provider failure message", err)
	}
}

// A transport error during a poll attempt is fatal, not retried.
func TestWaitTransportErrorPropagates(t *testing.T) {
	transport := errors.New("connection reset")
	client := &scriptedClient{
		responses: make([]model.JobHandle, 1),
		errs:      []error{transport},
	}
	p, _ := newTestPoller(client, 0)

	_, err := p.Wait(context.Background(), model.JobHandle{Token: "op-5"})
	if !errors.Is(err, transport) {
		t.Fatalf("err = %v, want transport error", err)
	}
	if client.calls != 1 {
		t.Fatalf("status queries = %d, want 1", client.calls)
	}
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	client := &scriptedClient{responses: make([]model.JobHandle, 8)}
	p := NewPoller(client, time.Hour, 0, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Wait(ctx, model.JobHandle{Token: "op-6"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if client.calls != 0 {
		t.Fatalf("status queries = %d, want 0", client.calls)
	}
}

func TestWaitAttemptCeiling(t *testing.T) {
	never := []model.JobHandle{{Done: false}, {Done: false}, {Done: false}}
	client := &scriptedClient{responses: never}
	p, _ := newTestPoller(client, 2)

	_, err := p.Wait(context.Background(), model.JobHandle{Token: "op-7"})
	if !errors.Is(err, ErrDeadlineExceeded) {
		t.Fatalf("err = %v, want ErrDeadlineExceeded", err)
	}
	if client.calls != 2 {
		t.Fatalf("status queries = %d, want 2", client.calls)
	}
}
