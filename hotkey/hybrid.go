package hotkey

import (
	"sync/atomic"
	"time"
)

type Mode string

const (
	ModePTT    Mode = "ptt"
	ModeToggle Mode = "toggle"
)

// StartEvent indicates a new recording should start with the given mode.
type StartEvent struct {
	Mode Mode
}

// Hybrid wraps a Hotkey to provide hybrid tap-to-toggle and hold-to-talk behavior
// using the same key combination. It emits Start events and a unified Stop channel
// that signals when recording should end (for both PTT and Toggle modes).
type Hybrid struct {
	startCh chan StartEvent
	stopCh  chan struct{}
	toggle  atomic.Bool
	reset   atomic.Bool
}

// NewHybrid builds a Hybrid controller on top of an existing Hotkey.
// longPress specifies the duration threshold to treat a press as PTT vs tap.
func NewHybrid(hk Hotkey, longPress time.Duration) *Hybrid {
	h := &Hybrid{
		startCh: make(chan StartEvent, 1),
		stopCh:  make(chan struct{}, 1),
	}
	go h.run(hk, longPress)
	return h
}

// Start returns a channel of StartEvent values signaling when to begin recording.
func (h *Hybrid) Start() <-chan StartEvent { return h.startCh }

// StopChan returns a channel that is signaled when to stop recording
// (used for both PTT and toggle modes).
func (h *Hybrid) StopChan() <-chan struct{} { return h.stopCh }

// IsToggle reports whether the current press was a tap.
func (h *Hybrid) IsToggle() bool { return h.toggle.Load() }

// Reset makes the next press start a recording even if a tapped recording
// is still waiting for its stop press. Used when recording ended on its own.
func (h *Hybrid) Reset() { h.reset.Store(true) }

type hybridState int

const (
	stIdle hybridState = iota
	stToggleRecording
)

func (h *Hybrid) run(hk Hotkey, longPress time.Duration) {
	state := stIdle
	for {
		switch state {
		case stIdle:
			<-hk.Keydown()
			state = h.press(hk, longPress)
		case stToggleRecording:
			// Next press will stop on its release (short or long)
			<-hk.Keydown()
			if h.reset.Swap(false) {
				state = h.press(hk, longPress)
				continue
			}
			<-hk.Keyup()
			h.signalStop()
			state = stIdle
		}
	}
}

// press starts a recording immediately; the hold duration only decides how
// it stops.
func (h *Hybrid) press(hk Hotkey, longPress time.Duration) hybridState {
	h.reset.Store(false)
	h.toggle.Store(false)
	h.startCh <- StartEvent{Mode: ModeToggle}
	timer := time.NewTimer(longPress)
	defer timer.Stop()
	select {
	case <-timer.C:
		<-hk.Keyup()
		h.signalStop()
		return stIdle
	case <-hk.Keyup():
		h.toggle.Store(true)
		return stToggleRecording
	}
}

func (h *Hybrid) signalStop() {
	select {
	case h.stopCh <- struct{}{}:
	default:
	}
}
