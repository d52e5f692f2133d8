//go:build !windows

package shutdown

import (
	"os"
	"syscall"
	"testing"
	"time"
)

func TestWatchDeliversSignal(t *testing.T) {
	got := make(chan os.Signal, 1)
	Watch(func(sig os.Signal) { got <- sig })

	if err := syscall.Kill(os.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatal(err)
	}
	select {
	case sig := <-got:
		if sig != syscall.SIGHUP {
			t.Errorf("signal = %v, want SIGHUP", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback not called")
	}
}
