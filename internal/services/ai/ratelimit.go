package ai

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// rateWindow is the sliding window the per-minute budget is measured over.
	rateWindow = 60 * time.Second
	// rateWaitBuffer pads the computed wait so the oldest timestamp has
	// definitely left the window when the caller proceeds.
	rateWaitBuffer = 100 * time.Millisecond
)

// RateLimiter applies local admission control for one model role: a sliding
// 60-second window for the per-minute budget and a rolling counter for the
// per-day budget. The daily budget is soft: the backend is the authority on
// hard daily caps, so exceeding it only logs a warning.
//
// One limiter is shared by all callers targeting its role; state is only
// touched inside the mutex. The wait itself happens with the lock released,
// and the window is deliberately not re-checked after sleeping.
type RateLimiter struct {
	rpm int
	rpd int

	mu         sync.Mutex
	timestamps []time.Time
	dailyCount int
	dailyReset time.Time

	logger *zap.Logger

	// Overridable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a limiter with the given requests-per-minute and
// requests-per-day budgets.
func NewRateLimiter(rpm, rpd int, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		rpm:        rpm,
		rpd:        rpd,
		dailyReset: time.Now().Add(24 * time.Hour),
		logger:     logger,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

// Acquire blocks until one more request may be issued under this limiter's
// budgets. It never fails for capacity reasons; the only error it returns is
// the context's, when the caller is cancelled during a wait.
func (l *RateLimiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	now := l.now()

	if now.After(l.dailyReset) {
		l.dailyCount = 0
		l.dailyReset = now.Add(24 * time.Hour)
	}

	if l.dailyCount >= l.rpd {
		// Soft cap: local daily counting drifts from the backend's true
		// count and cannot be authoritative, so proceed and let the
		// backend reject if it enforces a hard limit.
		l.logger.Warn("daily_request_budget_reached",
			zap.Int("rpd", l.rpd),
			zap.Int("daily_count", l.dailyCount),
		)
	}

	kept := l.timestamps[:0]
	for _, t := range l.timestamps {
		if now.Sub(t) < rateWindow {
			kept = append(kept, t)
		}
	}
	l.timestamps = kept

	// A non-positive rpm degrades to waiting out a full window per request;
	// the guard also keeps the first-ever request from indexing an empty
	// window.
	var wait time.Duration
	if len(l.timestamps) >= l.rpm && len(l.timestamps) > 0 {
		wait = rateWindow - now.Sub(l.timestamps[0]) + rateWaitBuffer
	}
	l.mu.Unlock()

	if wait > 0 {
		l.logger.Warn("local_rate_limit_reached",
			zap.Int("rpm", l.rpm),
			zap.Duration("wait", wait),
		)
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
		// No re-validation after the wait: this is a soft limiter and the
		// minor raciness is accepted over holding the lock while sleeping.
	}

	l.mu.Lock()
	l.timestamps = append(l.timestamps, l.now())
	l.dailyCount++
	l.mu.Unlock()
	return nil
}

// sleepContext sleeps for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
