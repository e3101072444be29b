package shutdown

import (
	"os"
	"os/signal"
	"sync"
)

// Handle calls fn once, on the first termination signal. After the returned
// stop function returns, fn has either finished or will never run; stop
// waits for an fn that is already running.
func Handle(fn func(os.Signal)) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	done := make(chan struct{})

	var (
		mu      sync.Mutex
		stopped bool
		once    sync.Once
	)
	go func() {
		select {
		case sig := <-ch:
			mu.Lock()
			defer mu.Unlock()
			if !stopped {
				fn(sig)
			}
		case <-done:
		}
	}()
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
			mu.Lock()
			stopped = true
			mu.Unlock()
		})
	}
}
