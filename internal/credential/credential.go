package credential

import (
	"context"
	"log/slog"
	"sync"
)

// NotFoundMarker is the provider's error text for a request made with a
// missing or revoked API key.
const NotFoundMarker = "Requested entity was not found"

// UserMessage is shown whenever a generation fails because of the
// credential rather than the request itself.
const UserMessage = "API Key error. Please re-select your API key using the button in the header."

// Checker answers whether an API credential is currently available.
// When no selection mechanism exists in the environment, a credential
// is assumed present so non-video flows are not blocked.
type Checker interface {
	HasCredential(ctx context.Context) bool
	Recheck(ctx context.Context) bool
}

// EnvChecker resolves the credential through a lookup function and
// caches the answer until the next Recheck.
type EnvChecker struct {
	lookup func() string
	log    *slog.Logger

	mu      sync.RWMutex
	present bool
	checked bool
}

func NewEnvChecker(lookup func() string, logger *slog.Logger) *EnvChecker {
	return &EnvChecker{lookup: lookup, log: logger}
}

var _ Checker = (*EnvChecker)(nil)

func (c *EnvChecker) HasCredential(ctx context.Context) bool {
	c.mu.RLock()
	if c.checked {
		defer c.mu.RUnlock()
		return c.present
	}
	c.mu.RUnlock()
	return c.Recheck(ctx)
}

// Recheck re-resolves the credential, refreshing the cached answer.
// Called after a not-found failure so a newly selected key is picked up
// without a restart.
func (c *EnvChecker) Recheck(_ context.Context) bool {
	present := c.lookup() != ""
	c.mu.Lock()
	c.present = present
	c.checked = true
	c.mu.Unlock()
	if !present {
		c.log.Warn("credential_missing")
	}
	return present
}
