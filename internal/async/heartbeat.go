package async

import (
	"context"
	"sync"
	"time"
)

// Heartbeat invokes fn on a fixed interval until the returned stop
// function is called or ctx is cancelled. Purely for progress
// feedback during long phases; it never affects correctness, and fn
// runs on the heartbeat goroutine.
func Heartbeat(ctx context.Context, interval time.Duration, fn func()) (stop func()) {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
