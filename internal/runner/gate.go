package runner

import (
	"context"
	"time"
)

// StartAt returns the instant the first request should go out:
// freeze-end (release + 60s) minus the lead time.
func StartAt(release time.Time, leadSeconds float64) time.Time {
	lead := time.Duration(leadSeconds * float64(time.Second))
	return release.Add(FreezeOffset - lead)
}

// GateWait returns how long to hold before the first request. It is zero
// when no release time is set or the start instant already passed.
func GateWait(cfg Config, now time.Time) (time.Time, time.Duration) {
	if cfg.ReleaseTime.IsZero() {
		return time.Time{}, 0
	}
	startAt := StartAt(cfg.ReleaseTime, cfg.StartBefore)
	wait := startAt.Sub(now)
	if wait < 0 {
		wait = 0
	}
	return startAt, wait
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
