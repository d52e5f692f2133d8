package session

import (
	"errors"
	"time"

	"voxsheet/sheet"
)

var ErrEmptyCapture = errors.New("no audio captured")

// CaptureError means the microphone could not be opened.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string { return "capture: " + e.Err.Error() }

func (e *CaptureError) Unwrap() error { return e.Err }

// Event is sent from the recording worker to the UI.
type Event interface {
	event()
}

type StateChanged struct {
	State   State
	Message string
}

// Countdown is the whole seconds left before capture stops on its own.
type Countdown struct {
	Remaining int
}

// Level is the RMS of the latest frame, 0..1. Level events are dropped
// when the UI falls behind.
type Level struct {
	RMS float64
}

type Transcript struct {
	Text       string
	Confidence float64
	Failed     bool
	Cell       sheet.Address
	At         time.Time
}

type CellAdvanced struct {
	Cell sheet.Address
}

// Failed reports a run that ended without a transcript.
type Failed struct {
	Err error
}

func (StateChanged) event() {}
func (Countdown) event()    {}
func (Level) event()        {}
func (Transcript) event()   {}
func (CellAdvanced) event() {}
func (Failed) event()       {}
