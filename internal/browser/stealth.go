package browser

import (
	"context"
	"math/rand"
	"time"
)

// RandomDuration returns a random duration in [min, max].
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Humanize lets the page settle for a random while, then scrolls like a
// reader skimming down to the bottom.
func Humanize(ctx context.Context, page Page, extra time.Duration) error {
	page.Wait(RandomDuration(3*time.Second, 10*time.Second))
	if err := Sleep(ctx, extra); err != nil {
		return err
	}

	for i := 0; i < 1+rand.Intn(2); i++ {
		if err := page.Scroll(float64(100 + rand.Intn(101))); err != nil {
			return err
		}
		if err := Sleep(ctx, RandomDuration(200*time.Millisecond, 500*time.Millisecond)); err != nil {
			return err
		}
	}

	if err := page.ScrollToBottom(); err != nil {
		return err
	}
	return Sleep(ctx, RandomDuration(500*time.Millisecond, time.Second))
}
