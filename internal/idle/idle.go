// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package idle provides a helper for exiting services after a period of
// inactivity.
package idle

import (
	"cmp"
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

// DefaultTimeout is the inactivity window used when no explicit timeout is
// configured.
const DefaultTimeout = 15 * time.Minute

// Tracker is an idle tracker. It watches a rolling window of inactivity:
// only calls to [Tracker.Touch] (or requests through [Tracker.Handler])
// extend the deadline, the periodic check itself never does.
type Tracker struct {
	lastActivity atomic.Int64
	timeout      time.Duration
	expire       func()

	// Tick is the polling interval. If zero, 30 seconds is used.
	Tick time.Duration
}

// NewTracker returns a new idle tracker that calls expire once the timeout
// elapses without activity. It returns nil if timeout is zero, disabling the
// functionality.
//
// expire is called at most once, from the monitor goroutine. It must not
// block: typically it notifies the user and cancels the root context.
func NewTracker(timeout time.Duration, expire func()) *Tracker {
	if timeout == 0 {
		return nil
	}
	t := &Tracker{
		timeout: timeout,
		expire:  expire,
	}
	t.lastActivity.Store(time.Now().UnixNano())
	return t
}

// Touch records user activity, extending the idle deadline.
func (t *Tracker) Touch() {
	t.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity returns the time of the last recorded activity.
func (t *Tracker) LastActivity() time.Time {
	return time.Unix(0, t.lastActivity.Load())
}

// Handler is a middleware that updates the last activity time.
func (t *Tracker) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Touch()
		next.ServeHTTP(w, r)
	})
}

// Run runs the activity monitor.
func (t *Tracker) Run(ctx context.Context) {
	go t.runActivityMonitor(ctx, cmp.Or(t.Tick, 30*time.Second))
}

func (t *Tracker) runActivityMonitor(ctx context.Context, tickDuration time.Duration) {
	ticker := time.NewTicker(tickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if time.Since(t.LastActivity()) >= t.timeout {
				t.expire()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
