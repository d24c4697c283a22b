package scraper

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter throttles requests per shop host, so prefilling from one shop
// never delays lookups against another. A nil HostLimiter never waits.
type HostLimiter struct {
	rps float64

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewHostLimiter allows rps requests per second to each host. A non-positive
// rps disables limiting.
func NewHostLimiter(rps float64) *HostLimiter {
	return &HostLimiter{rps: rps, hosts: make(map[string]*rate.Limiter)}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (hl *HostLimiter) Wait(ctx context.Context, host string) error {
	if hl == nil || hl.rps <= 0 {
		return nil
	}
	return hl.limiter(strings.ToLower(host)).Wait(ctx)
}

func (hl *HostLimiter) limiter(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	l, ok := hl.hosts[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(hl.rps), 1)
		hl.hosts[host] = l
	}
	return l
}
