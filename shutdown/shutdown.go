// Package shutdown turns termination signals into a callback.
package shutdown

import (
	"os"
	"os/signal"
)

// Watch calls fn with the first termination signal received. A second
// signal while fn is still running exits immediately with status 1.
func Watch(fn func(os.Signal)) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, signals...)
	go func() {
		sig := <-ch
		go func() {
			<-ch
			os.Exit(1)
		}()
		fn(sig)
	}()
}
