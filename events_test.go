package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"voxsheet/beep"
	"voxsheet/session"
	"voxsheet/sheet"
)

func TestMain(m *testing.M) {
	beep.Disable()
	m.Run()
}

type recordSink struct {
	statuses    []session.State
	countdowns  []int
	transcripts []string
	failed      []bool
	cells       []string
	errors      []string
}

func (r *recordSink) Status(state session.State, _ string) { r.statuses = append(r.statuses, state) }
func (r *recordSink) Countdown(n int)                     { r.countdowns = append(r.countdowns, n) }
func (r *recordSink) AudioLevel(float64)                  {}
func (r *recordSink) Transcript(line string, failed bool) {
	r.transcripts = append(r.transcripts, line)
	r.failed = append(r.failed, failed)
}
func (r *recordSink) CellChanged(cell sheet.Address) { r.cells = append(r.cells, cell.String()) }
func (r *recordSink) Error(text string)              { r.errors = append(r.errors, text) }

func TestFailureText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{session.ErrEmptyCapture, "녹음된 음성이 없습니다"},
		{&session.CaptureError{Err: errors.New("device unplugged")}, "마이크 오류: device unplugged"},
		{errors.New("boom"), "오류: boom"},
	}
	for _, tt := range tests {
		if got := failureText(tt.err); got != tt.want {
			t.Errorf("failureText(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestDispatchRemembersSuccessOnly(t *testing.T) {
	a := &app{}
	sink := &recordSink{}
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.Local)

	a.dispatch(session.Transcript{Text: "첫 번째", Confidence: 0.8, At: at}, sink)
	a.dispatch(session.Transcript{Text: "[음성 인식 실패] 시간 초과", Failed: true, At: at}, sink)

	if got := a.LastText(); got != "첫 번째" {
		t.Errorf("LastText = %q, want the successful transcript", got)
	}
	if len(sink.transcripts) != 2 {
		t.Fatalf("transcripts = %d, want 2", len(sink.transcripts))
	}
	if !strings.Contains(sink.transcripts[0], "첫 번째") || sink.failed[0] {
		t.Errorf("first line = %q failed=%v", sink.transcripts[0], sink.failed[0])
	}
	if !sink.failed[1] {
		t.Error("second line should be marked failed")
	}
}

func TestDispatchRoutesEvents(t *testing.T) {
	a := &app{}
	sink := &recordSink{}

	a.dispatch(session.StateChanged{State: session.Recording, Message: session.MsgRecording}, sink)
	a.dispatch(session.Countdown{Remaining: 12}, sink)
	a.dispatch(session.CellAdvanced{Cell: sheet.MustParseAddress("B7")}, sink)
	a.dispatch(session.Failed{Err: session.ErrEmptyCapture}, sink)
	a.dispatch(session.StateChanged{State: session.Idle, Message: session.MsgReady}, sink)

	if len(sink.statuses) != 2 || sink.statuses[0] != session.Recording || sink.statuses[1] != session.Idle {
		t.Errorf("statuses = %v", sink.statuses)
	}
	if len(sink.countdowns) != 1 || sink.countdowns[0] != 12 {
		t.Errorf("countdowns = %v", sink.countdowns)
	}
	if len(sink.cells) != 1 || sink.cells[0] != "B7" {
		t.Errorf("cells = %v", sink.cells)
	}
	if len(sink.errors) != 1 || sink.errors[0] != "녹음된 음성이 없습니다" {
		t.Errorf("errors = %v", sink.errors)
	}
}

func TestPlainSink(t *testing.T) {
	var buf bytes.Buffer
	s := newPlainSink(&buf)
	s.Status(session.Recording, session.MsgRecording)
	s.Countdown(14)
	s.Countdown(10)
	s.CellChanged(sheet.MustParseAddress("A2"))

	out := buf.String()
	if !strings.Contains(out, session.MsgRecording) {
		t.Errorf("missing status in %q", out)
	}
	if strings.Contains(out, "14s") {
		t.Errorf("countdown printed off the 5 second mark: %q", out)
	}
	if !strings.Contains(out, "남은 시간: 10s") {
		t.Errorf("missing countdown in %q", out)
	}
	if !strings.Contains(out, "다음 셀: A2") {
		t.Errorf("missing cell line in %q", out)
	}
}
