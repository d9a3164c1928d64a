package nanitws

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
)

// BackoffCalculator returns how long to wait before the given reconnect attempt.
type BackoffCalculator func(attempts int) time.Duration

func ExponentialBackoff(attempts int) float64 {
	return (math.Pow(2.0, float64(attempts)) - 1) / 2
}

func ExponentialBackoffSeconds(attempts int) time.Duration {
	return time.Duration(ExponentialBackoff(attempts)) * time.Second
}

// CappedBackoff bounds calc by limit.
func CappedBackoff(calc BackoffCalculator, limit time.Duration) BackoffCalculator {
	return func(attempts int) time.Duration {
		ttw := calc(attempts)
		if ttw > limit || ttw < 0 {
			return limit
		}
		return ttw
	}
}

// Reconnector schedules explicit reconnects. The core never reconnects on its own; callers
// that want to retry after SessionEnded ask the Reconnector for the delay and call
// Connect again.
type Reconnector struct {
	calculator  BackoffCalculator
	maxAttempts int
	// healthyAfter resets the attempt counter when the previous connection lived this long.
	healthyAfter time.Duration
	logger       logger

	attempts  int
	connected time.Time
}

func NewReconnector(
	logger logger,
	calculator BackoffCalculator,
	maxAttempts int,
	healthyAfter time.Duration,
) *Reconnector {
	if calculator == nil {
		calculator = ExponentialBackoffSeconds
	}
	return &Reconnector{
		calculator:   calculator,
		maxAttempts:  maxAttempts,
		healthyAfter: healthyAfter,
		logger:       logger.WithField("type", "reconnector"),
	}
}

// Connected records the start of a connection.
func (r *Reconnector) Connected(now time.Time) {
	r.connected = now
}

// Next returns the delay before the next attempt, or ErrTerminated once maxAttempts is
// exhausted. A non-positive maxAttempts never gives up.
func (r *Reconnector) Next(now time.Time, cause error) (time.Duration, error) {
	if !r.connected.IsZero() && now.Sub(r.connected) > r.healthyAfter {
		// The last connection was healthy, start over.
		r.attempts = 0
	}
	r.connected = time.Time{}
	r.attempts++

	if r.maxAttempts > 0 && r.attempts > r.maxAttempts {
		return 0, errors.Wrapf(ErrTerminated, "gave up after %d attempts", r.maxAttempts)
	}

	ttw := r.calculator(r.attempts)
	r.logger.Infof("retrying to connect after %s due to %v", ttw, cause)
	return ttw, nil
}

// Attempts returns the number of attempts since the last reset.
func (r *Reconnector) Attempts() int {
	return r.attempts
}

// Wait sleeps for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
