package provider

import (
	"context"
	"fmt"

	"storyboard/server/internal/compose"
	"storyboard/server/internal/model"
)

// Error reports that the remote service rejected a request or returned
// an unusable response. The message is surfaced to the user verbatim,
// so it carries the provider's own wording where one exists.
type Error struct {
	Op      string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errorf(op, format string, args ...any) *Error {
	return &Error{Op: op, Message: fmt.Sprintf(format, args...)}
}

// Client is the boundary to the generative-media service. Every method
// performs exactly one outbound call; retry policy, if any, lives with
// the caller (the poller for status checks, the user for everything
// else).
type Client interface {
	// GenerateImages performs a synchronous image synthesis round trip
	// and returns the inline payloads, one per requested image. A failed
	// multi-image request yields no images.
	GenerateImages(ctx context.Context, req compose.ImageRequest) ([]model.ImageBlob, error)

	// SubmitVideo submits an asynchronous video job and returns its
	// handle. The handle is rarely terminal on return.
	SubmitVideo(ctx context.Context, req compose.VideoRequest) (model.JobHandle, error)

	// PollVideo fetches the current status of a job and returns a fresh
	// handle; it never mutates the one passed in.
	PollVideo(ctx context.Context, h model.JobHandle) (model.JobHandle, error)

	// Search answers a text query about the supplied images.
	Search(ctx context.Context, req compose.SearchRequest) (string, error)

	// ParseScript breaks a script into storyboard scenes using
	// schema-constrained JSON generation.
	ParseScript(ctx context.Context, script string) ([]model.ParsedScene, error)
}
