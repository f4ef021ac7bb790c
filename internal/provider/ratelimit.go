package provider

import (
	"context"

	"storyboard/server/internal/compose"
	"storyboard/server/internal/model"

	"golang.org/x/time/rate"
)

// RateLimited decorates a Client with a token-bucket limiter so bursts
// of UI actions cannot exceed the provider's request quota. It delays
// calls; it never retries them.
type RateLimited struct {
	inner   Client
	limiter *rate.Limiter
}

func NewRateLimited(inner Client, requestsPerSecond int) *RateLimited {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

var _ Client = (*RateLimited)(nil)

func (r *RateLimited) GenerateImages(ctx context.Context, req compose.ImageRequest) ([]model.ImageBlob, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.GenerateImages(ctx, req)
}

func (r *RateLimited) SubmitVideo(ctx context.Context, req compose.VideoRequest) (model.JobHandle, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return model.JobHandle{}, err
	}
	return r.inner.SubmitVideo(ctx, req)
}

func (r *RateLimited) PollVideo(ctx context.Context, h model.JobHandle) (model.JobHandle, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return model.JobHandle{}, err
	}
	return r.inner.PollVideo(ctx, h)
}

func (r *RateLimited) Search(ctx context.Context, req compose.SearchRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.inner.Search(ctx, req)
}

func (r *RateLimited) ParseScript(ctx context.Context, script string) ([]model.ParsedScene, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.ParseScript(ctx, script)
}
