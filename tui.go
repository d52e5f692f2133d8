package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voxsheet/config"
	"voxsheet/session"
	"voxsheet/sheet"
)

// TUI message types
type StatusMsg struct {
	State   session.State
	Message string
}
type CountdownMsg struct{ Remaining int }
type AudioLevelMsg struct{ Level float64 }
type TranscriptMsg struct {
	Line   string
	Failed bool
}
type CellMsg struct{ Cell string }
type NoticeMsg struct {
	Text  string
	Error bool
}
type TargetMsg struct{ Text string }
type ModeLineMsg struct{ Text string }   // backend and language
type DeviceLineMsg struct{ Text string } // Microphone device name
type HotkeyLineMsg struct{ Text string }
type tickMsg time.Time

const (
	maxHistory = 100
	meterWidth = 30
)

// controller is what the TUI can ask of the application.
type controller interface {
	Start() bool
	Stop()
	SetCell(text string) (sheet.Address, error)
	NextSheet() (string, error)
	NextSpreadsheet() (string, error)
	CopyLast() (string, error)
	Target() string
}

type transcriptLine struct {
	text   string
	failed bool
}

type tuiModel struct {
	ctl           controller
	state         session.State
	status        string
	remaining     int
	audioLevel    float64
	frame         int
	width, height int
	cell          string
	target        string
	modeLine      string
	deviceLine    string
	hotkeyLine    string
	combo         string
	notice        string
	noticeErr     bool
	history       []transcriptLine
	editing       bool
	input         []rune
}

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

var (
	recordingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	transcribingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	readyStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	dimStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldHelpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	cellStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	textStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	failedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	noticeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newTUIModel(ctl controller, cell, deviceLine string, opts config.Options) tuiModel {
	return tuiModel{
		ctl:        ctl,
		state:      session.Idle,
		status:     session.MsgReady,
		cell:       cell,
		target:     ctl.Target(),
		deviceLine: deviceLine,
		modeLine:   modeLineText(opts),
		combo:      opts.Combo().String(),
	}
}

func NewTUIProgram(a *app, deviceLine string, opts config.Options) *tea.Program {
	m := newTUIModel(a, a.Cell().String(), deviceLine, opts)
	return tea.NewProgram(m, tea.WithAltScreen())
}

func modeLineText(opts config.Options) string {
	label := opts.Backend
	if opts.Language != "" {
		label += " (" + opts.Language + ")"
	}
	return fmt.Sprintf("[%s | %s]", strings.ToUpper(opts.Format), label)
}

// tuiSend delivers msg to the running TUI, if any.
func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// tuiSink forwards session events to the TUI program.
type tuiSink struct{}

func (tuiSink) Status(state session.State, message string) {
	tuiSend(StatusMsg{State: state, Message: message})
}
func (tuiSink) Countdown(remaining int) { tuiSend(CountdownMsg{Remaining: remaining}) }
func (tuiSink) AudioLevel(rms float64)  { tuiSend(AudioLevelMsg{Level: rms}) }
func (tuiSink) Transcript(line string, failed bool) {
	tuiSend(TranscriptMsg{Line: line, Failed: failed})
}
func (tuiSink) CellChanged(cell sheet.Address) { tuiSend(CellMsg{Cell: cell.String()}) }
func (tuiSink) Error(text string)              { tuiSend(NoticeMsg{Text: text, Error: true}) }

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	tuiReadyOnce.Do(func() { close(tuiReady) })
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateKeys(msg)

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case StatusMsg:
		m.state = msg.State
		m.status = msg.Message
		if msg.State != session.Recording {
			m.audioLevel = 0
			m.remaining = 0
		}
		if msg.State == session.Recording {
			m.notice = ""
		}

	case CountdownMsg:
		m.remaining = msg.Remaining

	case AudioLevelMsg:
		if m.state == session.Recording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
		}

	case TranscriptMsg:
		m.history = append(m.history, transcriptLine{text: msg.Line, failed: msg.Failed})
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}

	case CellMsg:
		m.cell = msg.Cell

	case NoticeMsg:
		m.notice = msg.Text
		m.noticeErr = msg.Error

	case TargetMsg:
		m.target = msg.Text
		m.notice = ""

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case HotkeyLineMsg:
		m.hotkeyLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case " ", "space", "r":
		m.ctl.Start()
	case "s":
		m.ctl.Stop()
	case "e":
		m.editing = true
		m.input = []rune(m.cell)
	case "c":
		ctl := m.ctl
		return m, func() tea.Msg {
			text, err := ctl.CopyLast()
			switch {
			case err != nil:
				return NoticeMsg{Text: "복사 실패: " + err.Error(), Error: true}
			case text == "":
				return NoticeMsg{Text: "복사할 텍스트가 없습니다"}
			}
			return NoticeMsg{Text: "클립보드에 복사됨"}
		}
	case "tab":
		ctl := m.ctl
		return m, func() tea.Msg {
			if _, err := ctl.NextSheet(); err != nil {
				return NoticeMsg{Text: "시트 변경 실패: " + err.Error(), Error: true}
			}
			return TargetMsg{Text: ctl.Target()}
		}
	case "p":
		ctl := m.ctl
		m.notice, m.noticeErr = "스프레드시트 불러오는 중...", false
		return m, func() tea.Msg {
			if _, err := ctl.NextSpreadsheet(); err != nil {
				return NoticeMsg{Text: "스프레드시트 변경 실패: " + err.Error(), Error: true}
			}
			return TargetMsg{Text: ctl.Target()}
		}
	}
	return m, nil
}

func (m tuiModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.editing = false
		m.input = nil
	case tea.KeyEnter:
		m.editing = false
		addr, err := m.ctl.SetCell(string(m.input))
		if err != nil {
			m.notice, m.noticeErr = "잘못된 셀 주소: "+string(m.input), true
		} else {
			m.cell = addr.String()
			m.notice, m.noticeErr = "", false
		}
		m.input = nil
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	}
	return m, nil
}

func (m tuiModel) statusLine() string {
	switch m.state {
	case session.Recording:
		line := recordingStyle.Render("● " + m.status)
		if m.remaining > 0 {
			line += "  " + recordingStyle.Render(fmt.Sprintf("남은 시간: %ds", m.remaining))
		}
		return line
	case session.Transcribing:
		return transcribingStyle.Render("◌ " + m.status)
	}
	return readyStyle.Render("○ " + m.status)
}

func levelMeter(level float64, width int) string {
	filled := int(level * 4 * float64(width))
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("█", filled) + strings.Repeat(" ", width-filled) + "]"
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var head []string
	head = append(head, m.statusLine())
	if m.state == session.Recording {
		head = append(head, recordingStyle.Render(levelMeter(m.audioLevel, meterWidth)))
	}

	cellLine := "셀: " + cellStyle.Render(m.cell) + dimStyle.Render("  →  "+m.target)
	if m.editing {
		cellLine = "셀 주소 입력: " + cellStyle.Render(string(m.input)+"_")
	}
	head = append(head, "", cellLine)

	for _, l := range []string{m.modeLine, m.deviceLine, m.hotkeyLine} {
		if l != "" {
			head = append(head, dimStyle.Render(l))
		}
	}
	if m.notice != "" {
		if m.noticeErr {
			head = append(head, errorStyle.Render(m.notice))
		} else {
			head = append(head, noticeStyle.Render(m.notice))
		}
	}
	head = append(head, "")

	help := boldHelpStyle.Render(m.combo+"/space") + helpStyle.Render(" 녹음  ") +
		boldHelpStyle.Render("s") + helpStyle.Render(" 중지  ") +
		boldHelpStyle.Render("e") + helpStyle.Render(" 셀  ") +
		boldHelpStyle.Render("tab") + helpStyle.Render(" 시트  ") +
		boldHelpStyle.Render("p") + helpStyle.Render(" 스프레드시트  ") +
		boldHelpStyle.Render("c") + helpStyle.Render(" 복사  ") +
		boldHelpStyle.Render("q") + helpStyle.Render(" 종료")
	foot := []string{"", help, helpStyle.Render("voxsheet " + version)}

	room := m.height - len(head) - len(foot)
	wrapWidth := max(m.width-2, 10)
	var body []string
	if len(m.history) == 0 {
		body = append(body, dimStyle.Render("아직 인식 결과가 없습니다"))
	}
	for i := len(m.history) - 1; i >= 0 && len(body) < room; i-- {
		style := textStyle
		if m.history[i].failed {
			style = failedStyle
		}
		lines := wrapText(m.history[i].text, wrapWidth)
		rendered := make([]string, len(lines))
		for j, line := range lines {
			rendered[j] = style.Render(line)
		}
		body = append(rendered, body...)
	}
	if len(body) > room && room > 0 {
		body = body[len(body)-room:]
	}

	out := append(head, body...)
	for len(out)+len(foot) < m.height {
		out = append(out, "")
	}
	out = append(out, foot...)
	return lipgloss.NewStyle().PaddingLeft(1).Render(strings.Join(out, "\n"))
}

// wrapText breaks text into lines of at most width runes, preferring to
// split at spaces.
func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	runes := []rune(text)
	var lines []string
	for len(runes) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(runes[:splitAt]))
		runes = []rune(strings.TrimLeft(string(runes[splitAt:]), " "))
	}
	if len(runes) > 0 {
		lines = append(lines, string(runes))
	}
	return lines
}
