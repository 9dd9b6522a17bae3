package main

import (
	"context"
	"sync"
	"time"
)

const (
	defaultRateLimit      = 30
	cooldown              = time.Minute
	defaultConcurrentReqs = 2
)

// Throttle limits downloads to rateLimit requests per cooldown window and at
// most maxConcurrent requests in flight.
type Throttle struct {
	rateLimit int
	ticker    *time.Ticker

	attemptsLock sync.Mutex
	attempts     []time.Time

	concurrentReqs chan struct{}
}

func NewThrottle(rateLimit, maxConcurrent int) *Throttle {
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultConcurrentReqs
	}
	t := &Throttle{
		rateLimit:      rateLimit,
		ticker:         time.NewTicker(cooldown / time.Duration(rateLimit)),
		concurrentReqs: make(chan struct{}, maxConcurrent),
	}
	for i := 0; i < maxConcurrent; i++ {
		t.concurrentReqs <- struct{}{}
	}
	return t
}

// Acquire blocks until a request may start. The returned func releases the
// concurrency slot.
func (t *Throttle) Acquire(ctx context.Context) (func(), error) {
	select {
	case <-t.concurrentReqs:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	done := func() { t.concurrentReqs <- struct{}{} }

	for {
		if t.tryAttempt() {
			return done, nil
		}
		select {
		case <-t.ticker.C:
		case <-ctx.Done():
			done()
			return nil, ctx.Err()
		}
	}
}

func (t *Throttle) tryAttempt() bool {
	t.attemptsLock.Lock()
	defer t.attemptsLock.Unlock()

	att := t.attempts
	if len(att) < t.rateLimit || time.Since(att[0]) > cooldown {
		att = append(att, time.Now())
		if len(att) > t.rateLimit {
			att = att[1:]
		}
		t.attempts = att
		return true
	}
	return false
}

func (t *Throttle) Stop() {
	t.ticker.Stop()
}
