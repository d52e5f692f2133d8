package main

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"voxsheet/config"
	"voxsheet/session"
	"voxsheet/sheet"
)

type fakeController struct {
	starts, stops int
	cell          sheet.Address
}

func (f *fakeController) Start() bool { f.starts++; return true }
func (f *fakeController) Stop()       { f.stops++ }
func (f *fakeController) SetCell(text string) (sheet.Address, error) {
	addr, err := sheet.ParseAddress(text)
	if err != nil {
		return f.cell, err
	}
	f.cell = addr
	return addr, nil
}
func (f *fakeController) NextSheet() (string, error)       { return "", errors.New("no sheets") }
func (f *fakeController) NextSpreadsheet() (string, error) { return "", errors.New("no sheets") }
func (f *fakeController) CopyLast() (string, error)        { return "", nil }
func (f *fakeController) Target() string                   { return "CSV: out.csv" }

func newTestModel(ctl *fakeController) tuiModel {
	opts := config.Options{Backend: "google", Language: "ko-KR", Format: "linear16"}
	return newTUIModel(ctl, "A1", "마이크: fake", opts)
}

func send(m tuiModel, msg tea.Msg) tuiModel {
	next, _ := m.Update(msg)
	return next.(tuiModel)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTUIKeysDriveController(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(ctl)
	m = send(m, runes("r"))
	m = send(m, runes("s"))
	if ctl.starts != 1 || ctl.stops != 1 {
		t.Errorf("starts=%d stops=%d, want 1 and 1", ctl.starts, ctl.stops)
	}
}

func TestTUIEditCell(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(ctl)

	m = send(m, runes("e"))
	if !m.editing {
		t.Fatal("e should enter edit mode")
	}
	m = send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	m = send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	m = send(m, runes("c12"))
	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.editing {
		t.Error("enter should leave edit mode")
	}
	if m.cell != "C12" || ctl.cell.String() != "C12" {
		t.Errorf("cell = %q (controller %q), want C12", m.cell, ctl.cell)
	}
}

func TestTUIEditInvalidCell(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(ctl)

	m = send(m, runes("e"))
	m = send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	m = send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	m = send(m, runes("12"))
	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.cell != "A1" {
		t.Errorf("cell = %q, want unchanged A1", m.cell)
	}
	if !m.noticeErr || !strings.Contains(m.notice, "12") {
		t.Errorf("notice = %q err=%v", m.notice, m.noticeErr)
	}
}

func TestTUIEscCancelsEdit(t *testing.T) {
	ctl := &fakeController{}
	m := newTestModel(ctl)
	m = send(m, runes("e"))
	m = send(m, runes("Z9"))
	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing || m.cell != "A1" {
		t.Errorf("editing=%v cell=%q", m.editing, m.cell)
	}
}

func TestTUIStatusResetsMeter(t *testing.T) {
	m := newTestModel(&fakeController{})
	m = send(m, StatusMsg{State: session.Recording, Message: session.MsgRecording})
	m = send(m, AudioLevelMsg{Level: 0.5})
	m = send(m, CountdownMsg{Remaining: 9})
	if m.audioLevel == 0 || m.remaining != 9 {
		t.Fatalf("level=%v remaining=%d", m.audioLevel, m.remaining)
	}
	m = send(m, StatusMsg{State: session.Transcribing, Message: session.MsgTranscribing})
	if m.audioLevel != 0 || m.remaining != 0 {
		t.Errorf("level=%v remaining=%d after leaving recording", m.audioLevel, m.remaining)
	}
}

func TestTUILevelIgnoredWhenIdle(t *testing.T) {
	m := newTestModel(&fakeController{})
	m = send(m, AudioLevelMsg{Level: 0.9})
	if m.audioLevel != 0 {
		t.Errorf("level = %v while idle", m.audioLevel)
	}
}

func TestTUIHistoryIsBounded(t *testing.T) {
	m := newTestModel(&fakeController{})
	for range maxHistory + 10 {
		m = send(m, TranscriptMsg{Line: "x"})
	}
	if len(m.history) != maxHistory {
		t.Errorf("history = %d, want %d", len(m.history), maxHistory)
	}
}

func TestTUIViewShowsCountdown(t *testing.T) {
	m := newTestModel(&fakeController{})
	m = send(m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m = send(m, StatusMsg{State: session.Recording, Message: session.MsgRecording})
	m = send(m, CountdownMsg{Remaining: 7})
	view := m.View()
	for _, want := range []string{"남은 시간: 7s", "A1", "CSV: out.csv", "마이크: fake", "Ctrl+Shift+Space"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModeLineText(t *testing.T) {
	got := modeLineText(config.Options{Backend: "proxy", Language: "ko-KR", Format: "flac"})
	if got != "[FLAC | proxy (ko-KR)]" {
		t.Errorf("modeLineText = %q", got)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, []string{""}},
		{"short", 10, []string{"short"}},
		{"hello world again", 11, []string{"hello world", "again"}},
		{"hello world again", 8, []string{"hello", "world", "again"}},
		{"abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
	}
	for _, tt := range tests {
		got := wrapText(tt.text, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
		}
	}
}

func TestWrapTextKorean(t *testing.T) {
	for _, line := range wrapText("안녕하세요 반갑습니다 오늘 날씨가 좋네요", 6) {
		if !utf8.ValidString(line) {
			t.Fatalf("line %q is not valid UTF-8", line)
		}
		if n := utf8.RuneCountInString(line); n > 6 {
			t.Errorf("line %q has %d runes, want <= 6", line, n)
		}
	}
}
