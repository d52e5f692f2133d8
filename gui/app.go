//go:build gui

// Package gui is the fyne desktop front end. It shows the recording status,
// the transcript history and the spreadsheet target, and mirrors the main
// actions in a system tray menu.
package gui

import (
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"voxsheet/session"
	"voxsheet/sheet"
)

const maxHistory = 200

// Controller is the application as seen by the window.
type Controller interface {
	Start() bool
	Stop()
	Cell() sheet.Address
	SetCell(text string) (sheet.Address, error)
	SheetsAvailable() bool
	Spreadsheets() ([]string, error)
	SelectSpreadsheet(name string) ([]string, error)
	SelectSheet(title string) error
	Selection() (spreadsheet, worksheet string)
	Titles() []string
	CopyLast() (string, error)
	Target() string
}

type App struct {
	fyneApp fyne.App
	window  fyne.Window
	desk    desktop.App
	onReady func()
	onQuit  func()
	ctl     Controller

	// Widgets are only touched on the fyne thread.
	status     *canvas.Text
	countdown  *widget.Label
	level      *widget.ProgressBar
	cell       *widget.Label
	cellEntry  *widget.Entry
	target     *widget.Label
	device     *widget.Label
	notice     *canvas.Text
	history    *widget.List
	ssSelect   *widget.Select
	wsSelect   *widget.Select
	startBtn   *widget.Button
	stopBtn    *widget.Button
	trayRecord *fyne.MenuItem
	trayStop   *fyne.MenuItem
	trayMenu   *fyne.Menu
	syncing    bool

	mu    sync.Mutex
	lines []string
}

// NewApp returns a window that calls onReady on its own goroutine once the
// event loop is about to start, and onQuit after it ends.
func NewApp(onReady, onQuit func()) *App {
	return &App{onReady: onReady, onQuit: onQuit}
}

func (a *App) Run() error {
	a.fyneApp = app.NewWithID("io.voxsheet.gui")
	a.fyneApp.Settings().SetTheme(&darkTheme{})

	a.window = a.fyneApp.NewWindow("voxsheet")
	a.window.SetContent(widget.NewLabel("불러오는 중..."))
	a.window.Resize(fyne.NewSize(520, 560))

	if desk, ok := a.fyneApp.(desktop.App); ok {
		a.desk = desk
		a.trayRecord = fyne.NewMenuItem("녹음 시작", func() { a.start() })
		a.trayStop = fyne.NewMenuItem("녹음 중지", func() { a.stop() })
		a.trayStop.Disabled = true
		a.trayMenu = fyne.NewMenu("voxsheet",
			a.trayRecord,
			a.trayStop,
			fyne.NewMenuItem("마지막 결과 복사", func() { a.copyLast() }),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("창 보이기", func() { a.window.Show() }),
		)
		desk.SetSystemTrayMenu(a.trayMenu)
		desk.SetSystemTrayIcon(trayIcons[session.Idle])
		// closing the window keeps the app in the tray
		a.window.SetCloseIntercept(func() { a.window.Hide() })
	}

	if a.onReady != nil {
		go a.onReady()
	}
	a.window.ShowAndRun()
	if a.onQuit != nil {
		a.onQuit()
	}
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

// Attach binds the window to ctl and builds the main layout.
func (a *App) Attach(ctl Controller, deviceLine string) {
	a.ctl = ctl
	fyne.Do(func() {
		a.window.SetContent(a.build(deviceLine))
	})
	if ctl.SheetsAvailable() {
		go a.loadSpreadsheets()
	}
}

func (a *App) build(deviceLine string) fyne.CanvasObject {
	a.status = canvas.NewText(session.MsgReady, colorReady)
	a.status.TextStyle = fyne.TextStyle{Bold: true}
	a.status.TextSize = 20
	a.countdown = widget.NewLabel("")
	a.level = widget.NewProgressBar()
	a.level.TextFormatter = func() string { return "" }

	a.startBtn = widget.NewButtonWithIcon("녹음 시작", theme.MediaRecordIcon(), func() { a.start() })
	a.startBtn.Importance = widget.HighImportance
	a.stopBtn = widget.NewButtonWithIcon("중지", theme.MediaStopIcon(), func() { a.stop() })
	a.stopBtn.Disable()
	copyBtn := widget.NewButtonWithIcon("복사", theme.ContentCopyIcon(), func() { a.copyLast() })

	a.cell = widget.NewLabelWithStyle(a.ctl.Cell().String(), fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	a.cellEntry = widget.NewEntry()
	a.cellEntry.SetPlaceHolder("예: B3")
	a.cellEntry.OnSubmitted = func(string) { a.applyCell() }
	applyBtn := widget.NewButton("이동", func() { a.applyCell() })

	a.ssSelect = widget.NewSelect(nil, a.onSpreadsheet)
	a.ssSelect.PlaceHolder = "스프레드시트"
	a.wsSelect = widget.NewSelect(nil, a.onWorksheet)
	a.wsSelect.PlaceHolder = "시트"
	if !a.ctl.SheetsAvailable() {
		a.ssSelect.Disable()
		a.wsSelect.Disable()
	}

	a.target = widget.NewLabel(a.ctl.Target())
	a.device = widget.NewLabel(deviceLine)
	a.notice = canvas.NewText("", colorRecording)

	a.history = widget.NewList(
		func() int {
			a.mu.Lock()
			defer a.mu.Unlock()
			return len(a.lines)
		},
		func() fyne.CanvasObject {
			l := widget.NewLabel("")
			l.Wrapping = fyne.TextWrapWord
			return l
		},
		func(id widget.ListItemID, o fyne.CanvasObject) {
			a.mu.Lock()
			defer a.mu.Unlock()
			if id < len(a.lines) {
				o.(*widget.Label).SetText(a.lines[id])
			}
		},
	)

	header := container.NewVBox(
		container.NewHBox(a.status, a.countdown),
		a.level,
		container.NewGridWithColumns(3, a.startBtn, a.stopBtn, copyBtn),
		widget.NewForm(
			widget.NewFormItem("셀", container.NewBorder(nil, nil, a.cell, applyBtn, a.cellEntry)),
			widget.NewFormItem("스프레드시트", a.ssSelect),
			widget.NewFormItem("시트", a.wsSelect),
		),
		a.target,
		a.device,
		a.notice,
		widget.NewSeparator(),
	)
	return container.NewBorder(header, nil, nil, nil, a.history)
}

func (a *App) start() {
	if a.ctl != nil {
		a.ctl.Start()
	}
}

func (a *App) stop() {
	if a.ctl != nil {
		a.ctl.Stop()
	}
}

func (a *App) copyLast() {
	if a.ctl == nil {
		return
	}
	go func() {
		text, err := a.ctl.CopyLast()
		switch {
		case err != nil:
			a.setNotice("복사 실패: "+err.Error(), true)
		case text == "":
			a.setNotice("복사할 텍스트가 없습니다", false)
		default:
			a.setNotice("클립보드에 복사됨", false)
		}
	}()
}

func (a *App) applyCell() {
	addr, err := a.ctl.SetCell(a.cellEntry.Text)
	if err != nil {
		a.notice.Text = "잘못된 셀 주소: " + a.cellEntry.Text
		a.notice.Color = colorRecording
		a.notice.Refresh()
		return
	}
	a.cell.SetText(addr.String())
	a.cellEntry.SetText("")
	a.notice.Text = ""
	a.notice.Refresh()
}

func (a *App) loadSpreadsheets() {
	names, err := a.ctl.Spreadsheets()
	if err != nil {
		a.setNotice("스프레드시트 목록 실패: "+err.Error(), true)
		return
	}
	current, worksheet := a.ctl.Selection()
	titles := a.ctl.Titles()
	fyne.Do(func() {
		a.syncing = true
		defer func() { a.syncing = false }()
		a.ssSelect.SetOptions(names)
		if current != "" {
			a.ssSelect.SetSelected(current)
		}
		a.wsSelect.SetOptions(titles)
		if worksheet != "" {
			a.wsSelect.SetSelected(worksheet)
		}
	})
}

func (a *App) onSpreadsheet(name string) {
	if a.syncing || a.ctl == nil {
		return
	}
	go func() {
		titles, err := a.ctl.SelectSpreadsheet(name)
		if err != nil {
			a.setNotice(fmt.Sprintf("%s 열기 실패: %v", name, err), true)
			return
		}
		_, worksheet := a.ctl.Selection()
		target := a.ctl.Target()
		fyne.Do(func() {
			a.syncing = true
			defer func() { a.syncing = false }()
			a.wsSelect.SetOptions(titles)
			if worksheet != "" {
				a.wsSelect.SetSelected(worksheet)
			} else {
				a.wsSelect.ClearSelected()
			}
			a.target.SetText(target)
		})
	}()
}

func (a *App) onWorksheet(title string) {
	if a.syncing || a.ctl == nil {
		return
	}
	if err := a.ctl.SelectSheet(title); err != nil {
		a.notice.Text = "시트 선택 실패: " + err.Error()
		a.notice.Color = colorRecording
		a.notice.Refresh()
		return
	}
	a.target.SetText(a.ctl.Target())
}

func (a *App) setNotice(text string, isErr bool) {
	fyne.Do(func() {
		if a.notice == nil {
			return
		}
		a.notice.Text = text
		a.notice.Color = colorReady
		if isErr {
			a.notice.Color = colorRecording
		}
		a.notice.Refresh()
	})
}

// Status, Countdown, AudioLevel, Transcript, CellChanged and Error receive
// session events from the pump goroutine and apply them on the fyne thread.

func (a *App) Status(state session.State, message string) {
	fyne.Do(func() {
		if a.status == nil {
			return
		}
		a.status.Text = message
		a.status.Color = statusColor(state)
		a.status.Refresh()

		recording := state == session.Recording
		if recording {
			a.notice.Text = ""
			a.notice.Refresh()
		} else {
			a.countdown.SetText("")
			a.level.SetValue(0)
		}
		if state == session.Idle {
			a.startBtn.Enable()
		} else {
			a.startBtn.Disable()
		}
		if recording {
			a.stopBtn.Enable()
		} else {
			a.stopBtn.Disable()
		}

		if a.desk != nil {
			a.trayRecord.Disabled = state != session.Idle
			a.trayStop.Disabled = !recording
			a.trayMenu.Refresh()
			a.desk.SetSystemTrayIcon(trayIcons[state])
		}
	})
}

func (a *App) Countdown(remaining int) {
	fyne.Do(func() {
		if a.countdown != nil {
			a.countdown.SetText(fmt.Sprintf("남은 시간: %ds", remaining))
		}
	})
}

func (a *App) AudioLevel(rms float64) {
	fyne.Do(func() {
		if a.level != nil {
			a.level.SetValue(min(rms*4, 1))
		}
	})
}

func (a *App) Transcript(line string, failed bool) {
	a.mu.Lock()
	a.lines = append(a.lines, line)
	if len(a.lines) > maxHistory {
		a.lines = a.lines[len(a.lines)-maxHistory:]
	}
	a.mu.Unlock()
	fyne.Do(func() {
		if a.history == nil {
			return
		}
		a.history.Refresh()
		a.history.ScrollToBottom()
		if failed {
			a.notice.Text = "인식 실패"
			a.notice.Color = colorRecording
			a.notice.Refresh()
		}
	})
}

func (a *App) CellChanged(cell sheet.Address) {
	fyne.Do(func() {
		if a.cell != nil {
			a.cell.SetText(cell.String())
		}
	})
}

func (a *App) Error(text string) { a.setNotice(text, true) }

func (a *App) DeviceLine(text string) {
	fyne.Do(func() {
		if a.device != nil {
			a.device.SetText(text)
		}
	})
}
