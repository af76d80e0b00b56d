package authclient

import (
	"context"
	"sync"
	"time"

	pkgAuth "github.com/piyawat/agencydesk-backend/pkg/auth"
)

const (
	// RefreshBuffer is how long before expiry a refresh fires.
	RefreshBuffer = 60 * time.Second
	// MinRefreshInterval floors the timer to avoid refresh storms when the
	// token lifetime is very short or the expiry cannot be decoded.
	MinRefreshInterval = 5 * time.Minute
	// DefaultTokenLifetime is assumed when the token carries no readable
	// expiry claim.
	DefaultTokenLifetime = 15 * time.Minute
)

// RefreshScheduler proactively refreshes the access token before it expires.
// The expiry is decoded without signature verification; the client holds no
// secret to verify with.
type RefreshScheduler struct {
	cache   *TokenCache
	refresh func(ctx context.Context) bool
	logout  func(ctx context.Context)
	now     func() time.Time

	mu         sync.Mutex
	timer      *time.Timer
	refreshing bool
	stopped    bool
}

// NewRefreshScheduler wires the scheduler to a token cache, a refresh
// callback reporting success, and a forced-logout callback for refresh
// failure.
func NewRefreshScheduler(cache *TokenCache, refresh func(ctx context.Context) bool, logout func(ctx context.Context)) *RefreshScheduler {
	return &RefreshScheduler{
		cache:   cache,
		refresh: refresh,
		logout:  logout,
		now:     time.Now,
	}
}

// Schedule arms the timer for the current cached token. Any previously armed
// timer is cleared first so stale timers never fire after a reschedule.
func (s *RefreshScheduler) Schedule(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.clearTimerLocked()

	delay := s.delayFor(s.cache.Get())
	s.timer = time.AfterFunc(delay, func() {
		s.fire(ctx)
	})
}

// WakeUp runs the visibility-change check: if the token is already inside
// the buffer window, expired, or unreadable, refresh immediately. The timer
// is re-armed in every case.
func (s *RefreshScheduler) WakeUp(ctx context.Context) {
	token := s.cache.Get()
	needsRefresh := true
	if token != "" {
		if exp, err := pkgAuth.UnverifiedExpiry(token); err == nil {
			needsRefresh = s.now().Add(RefreshBuffer).After(exp)
		}
	}

	if needsRefresh {
		s.fire(ctx)
		return
	}
	s.Schedule(ctx)
}

// Stop clears any pending timer. The scheduler cannot be rearmed afterwards.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.clearTimerLocked()
}

// fire performs one guarded refresh attempt. A second trigger while one is
// in flight no-ops instead of issuing another network call.
func (s *RefreshScheduler) fire(ctx context.Context) {
	s.mu.Lock()
	if s.stopped || s.refreshing {
		s.mu.Unlock()
		return
	}
	s.refreshing = true
	s.mu.Unlock()

	ok := s.refresh(ctx)

	s.mu.Lock()
	s.refreshing = false
	s.mu.Unlock()

	if ok {
		s.Schedule(ctx)
		return
	}
	s.Stop()
	if s.logout != nil {
		s.logout(ctx)
	}
}

// delayFor computes the timer delay: buffer seconds before expiry, the
// default lifetime when the expiry is unreadable, floored at the minimum
// interval.
func (s *RefreshScheduler) delayFor(token string) time.Duration {
	lifetime := DefaultTokenLifetime
	if token != "" {
		if exp, err := pkgAuth.UnverifiedExpiry(token); err == nil {
			lifetime = exp.Sub(s.now())
		}
	}

	delay := lifetime - RefreshBuffer
	if delay < MinRefreshInterval {
		delay = MinRefreshInterval
	}
	return delay
}

func (s *RefreshScheduler) clearTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
