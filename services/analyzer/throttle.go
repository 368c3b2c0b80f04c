package analyzer

import (
	"context"
	"time"

	"hyunsoo718/briefingworker/helpers"
	"hyunsoo718/briefingworker/logger"
)

// throttle caps concurrent calls and spaces them out: a permit is held
// until the minimum interval since acquisition has passed, even when
// the call itself finished earlier
type throttle struct {
	sem      chan struct{}
	interval time.Duration
	log      *logger.Logger
}

func newThrottle(limit int, interval time.Duration, log *logger.Logger) *throttle {
	return &throttle{
		sem:      make(chan struct{}, limit),
		interval: interval,
		log:      log,
	}
}

func (t *throttle) acquire(ctx context.Context) error {
	select {
	case t.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release frees the permit after topping up the interval
func (t *throttle) release(ctx context.Context, acquiredAt time.Time) {
	if wait := t.interval - time.Since(acquiredAt); wait > 0 {
		t.log.Info().Msgf("API 제한 준수를 위해 %.1f초 대기", wait.Seconds())
		_ = helpers.SleepContext(ctx, wait)
	}
	<-t.sem
}
