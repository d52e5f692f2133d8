package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"voxsheet/clipboard"
	"voxsheet/config"
	"voxsheet/log"
	"voxsheet/publish"
	"voxsheet/session"
	"voxsheet/sheet"
	"voxsheet/transcriber"
)

const sheetsTimeout = 20 * time.Second

var errSheetsUnavailable = errors.New("google sheets is not connected")

// app is everything a front end can do. The TUI, the GUI and test mode all
// drive the same value.
type app struct {
	opts      config.Options
	settings  *config.Settings
	pointer   *sheet.Pointer
	sheets    *sheet.GoogleSheets // nil when the sheets API is unavailable
	local     *sheet.LocalFile
	publisher *publish.Publisher
	client    transcriber.Client
	sess      *session.Session
	device    string

	mu       sync.Mutex
	lastText string
}

func (a *app) Start() bool {
	started := a.sess.Start()
	if !started {
		log.Debug("start ignored: session busy (" + a.sess.State().String() + ")")
	}
	return started
}

func (a *app) Stop() { a.sess.Stop() }

// Toggle starts a recording when idle and stops it while recording.
func (a *app) Toggle() {
	if a.sess.State() == session.Recording {
		a.Stop()
		return
	}
	a.Start()
}

func (a *app) State() session.State { return a.sess.State() }

func (a *app) Cell() sheet.Address { return a.pointer.Get() }

// SetCell moves the pointer. On error the pointer is unchanged.
func (a *app) SetCell(text string) (sheet.Address, error) {
	addr, err := a.pointer.Set(text)
	if err != nil {
		log.Warnf("invalid cell %q: %v", text, err)
	}
	return addr, err
}

func (a *app) SheetsAvailable() bool { return a.sheets != nil }

func (a *app) Spreadsheets() ([]string, error) {
	if a.sheets == nil {
		return nil, errSheetsUnavailable
	}
	ctx, cancel := context.WithTimeout(context.Background(), sheetsTimeout)
	defer cancel()
	list, err := a.sheets.Spreadsheets(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.Name
	}
	return names, nil
}

// SelectSpreadsheet switches spreadsheets and selects its first worksheet.
func (a *app) SelectSpreadsheet(name string) ([]string, error) {
	if a.sheets == nil {
		return nil, errSheetsUnavailable
	}
	ctx, cancel := context.WithTimeout(context.Background(), sheetsTimeout)
	defer cancel()
	titles, err := a.sheets.SelectSpreadsheet(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := a.settings.SetLastSpreadsheet(name); err != nil {
		log.Warnf("saving settings: %v", err)
	}
	if len(titles) > 0 {
		if err := a.SelectSheet(titles[0]); err != nil {
			return titles, err
		}
	}
	return titles, nil
}

func (a *app) SelectSheet(title string) error {
	if a.sheets == nil {
		return errSheetsUnavailable
	}
	if err := a.sheets.SelectSheet(title); err != nil {
		return err
	}
	if err := a.settings.SetLastSheet(title); err != nil {
		log.Warnf("saving settings: %v", err)
	}
	return nil
}

// NextSheet cycles to the following worksheet of the current spreadsheet.
func (a *app) NextSheet() (string, error) {
	if a.sheets == nil {
		return "", errSheetsUnavailable
	}
	titles := a.sheets.Titles()
	if len(titles) == 0 {
		return "", sheet.ErrNoSheetSelected
	}
	_, current := a.sheets.Selection()
	next := titles[0]
	for i, t := range titles {
		if t == current {
			next = titles[(i+1)%len(titles)]
			break
		}
	}
	return next, a.SelectSheet(next)
}

// NextSpreadsheet cycles to the following spreadsheet visible to the account.
func (a *app) NextSpreadsheet() (string, error) {
	names, err := a.Spreadsheets()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", sheet.ErrNotFound
	}
	current, _ := a.Selection()
	next := names[0]
	for i, n := range names {
		if n == current {
			next = names[(i+1)%len(names)]
			break
		}
	}
	_, err = a.SelectSpreadsheet(next)
	return next, err
}

func (a *app) Titles() []string {
	if a.sheets == nil {
		return nil
	}
	return a.sheets.Titles()
}

// Selection returns the spreadsheet and worksheet transcripts are written to.
func (a *app) Selection() (spreadsheet, worksheet string) {
	if a.sheets == nil {
		return "", ""
	}
	return a.sheets.Selection()
}

// Target describes where the next transcript goes.
func (a *app) Target() string {
	ss, ws := a.Selection()
	if ss == "" || ws == "" {
		return "CSV: " + a.local.Path()
	}
	return ss + " / " + ws
}

func (a *app) remember(text string) {
	a.mu.Lock()
	a.lastText = text
	a.mu.Unlock()
}

func (a *app) LastText() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastText
}

// CopyLast puts the last successful transcript on the clipboard.
func (a *app) CopyLast() (string, error) {
	text := a.LastText()
	if text == "" {
		return "", nil
	}
	if err := clipboard.Copy(text); err != nil {
		log.Warnf("clipboard copy: %v", err)
		return "", err
	}
	return text, nil
}
