package core

// scheduler.go runs background maintenance for the workbench.
//
// The sweeper closes sessions idle for longer than the session TTL, dropping
// their ledgers and import previews. It is context-aware for shutdown and
// never fails the application; it only logs.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is used when StartSweeper gets a non-positive interval.
const DefaultSweepInterval = time.Minute

// StartSweeper expires idle sessions every interval until ctx is cancelled.
func (w *Workbench) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session sweeper started",
		"interval", interval.String(),
		"session_ttl", w.cfg.SessionTTL.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			start := time.Now()
			if n := w.SweepExpired(); n > 0 {
				slog.Info("expired idle sessions",
					"sessions_closed", n,
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}
		}
	}
}

// SweepExpired closes every session idle longer than the TTL and returns how
// many were closed. A zero TTL disables expiry.
func (w *Workbench) SweepExpired() int {
	if w.cfg.SessionTTL <= 0 {
		return 0
	}
	cutoff := w.now().Add(-w.cfg.SessionTTL)

	w.mu.Lock()
	closed := 0
	for id, s := range w.sessions {
		if s.idleSince().Before(cutoff) {
			delete(w.sessions, id)
			closed++
		}
	}
	remaining := len(w.sessions)
	w.mu.Unlock()

	if closed > 0 {
		w.obs.SessionsActive(remaining)
	}
	return closed
}
