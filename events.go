package main

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"voxsheet/beep"
	"voxsheet/session"
	"voxsheet/sheet"
	"voxsheet/transcriber"
)

// EventSink abstracts the display layer so both the Bubble Tea TUI
// and the fyne GUI can receive the same session events.
type EventSink interface {
	Status(state session.State, message string)
	Countdown(remaining int)
	AudioLevel(rms float64)
	Transcript(line string, failed bool)
	CellChanged(cell sheet.Address)
	Error(text string)
}

// pump applies session events to sink until the event channel is closed.
// It runs on its own goroutine; sinks hand the update to their UI thread.
func (a *app) pump(sink EventSink) {
	for ev := range a.sess.Events() {
		a.dispatch(ev, sink)
	}
}

func (a *app) dispatch(ev session.Event, sink EventSink) {
	switch ev := ev.(type) {
	case session.StateChanged:
		switch ev.State {
		case session.Recording:
			go beep.PlayStart()
		case session.Transcribing:
			go beep.PlayEnd()
		}
		sink.Status(ev.State, ev.Message)
	case session.Countdown:
		sink.Countdown(ev.Remaining)
	case session.Level:
		sink.AudioLevel(ev.RMS)
	case session.Transcript:
		if ev.Failed {
			go beep.PlayError()
		} else {
			a.remember(ev.Text)
		}
		sink.Transcript(transcriber.Line(ev.At, ev.Text, ev.Confidence), ev.Failed)
	case session.CellAdvanced:
		sink.CellChanged(ev.Cell)
	case session.Failed:
		go beep.PlayError()
		sink.Error(failureText(ev.Err))
	}
}

func failureText(err error) string {
	var capErr *session.CaptureError
	switch {
	case errors.Is(err, session.ErrEmptyCapture):
		return "녹음된 음성이 없습니다"
	case errors.As(err, &capErr):
		return "마이크 오류: " + capErr.Err.Error()
	}
	return "오류: " + err.Error()
}

// plainSink prints events as lines, for running without the TUI.
type plainSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newPlainSink(w io.Writer) *plainSink { return &plainSink{w: w} }

func (s *plainSink) printf(format string, args ...any) {
	s.mu.Lock()
	fmt.Fprintf(s.w, format+"\n", args...)
	s.mu.Unlock()
}

func (s *plainSink) Status(_ session.State, message string) { s.printf("%s", message) }

func (s *plainSink) Countdown(remaining int) {
	if remaining%5 == 0 {
		s.printf("남은 시간: %ds", remaining)
	}
}

func (s *plainSink) AudioLevel(float64) {}

func (s *plainSink) Transcript(line string, _ bool) { s.printf("%s", line) }

func (s *plainSink) CellChanged(cell sheet.Address) { s.printf("다음 셀: %s", cell) }

func (s *plainSink) Error(text string) { s.printf("%s", text) }
