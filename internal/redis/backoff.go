package redis

import (
	"context"
	"time"
)

// Backoff doubles from Initial up to Max. The zero value waits one second
// and never caps.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration

	next time.Duration
}

// Next returns the wait before the next attempt and advances the sequence.
func (b *Backoff) Next() time.Duration {
	if b.next <= 0 {
		b.next = b.Initial
		if b.next <= 0 {
			b.next = time.Second
		}
	}
	d := b.next
	b.next *= 2
	if b.Max > 0 && b.next > b.Max {
		b.next = b.Max
	}
	if b.Max > 0 && d > b.Max {
		d = b.Max
	}
	return d
}

// Reset starts the sequence over, e.g. after a connection was healthy.
func (b *Backoff) Reset() { b.next = 0 }

// Sleep waits d or until ctx ends. It reports false when ctx ended first.
func Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
