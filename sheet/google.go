package sheet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var (
	ErrNoSheetSelected = errors.New("no worksheet selected")
	ErrNotFound        = errors.New("not found")
)

const spreadsheetQuery = "mimeType='application/vnd.google-apps.spreadsheet' and trashed=false"

type Spreadsheet struct {
	ID   string
	Name string
}

// GoogleSheets writes transcripts into a worksheet of a spreadsheet shared
// with the service account.
type GoogleSheets struct {
	sheets  *sheets.Service
	drive   *drive.Service
	allowed []string

	mu           sync.Mutex
	spreadsheets []Spreadsheet
	current      *Spreadsheet
	titles       []string
	sheet        string
}

// NewGoogleSheets authenticates with a service-account key file. An empty
// path uses application default credentials.
func NewGoogleSheets(ctx context.Context, credentials string, allowed []string) (*GoogleSheets, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope, drive.DriveReadonlyScope)}
	if credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}
	ss, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	ds, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return NewGoogleSheetsWithServices(ss, ds, allowed), nil
}

func NewGoogleSheetsWithServices(ss *sheets.Service, ds *drive.Service, allowed []string) *GoogleSheets {
	return &GoogleSheets{sheets: ss, drive: ds, allowed: allowed}
}

func (g *GoogleSheets) Name() string { return "google_sheets" }

// Spreadsheets lists the spreadsheets visible to the account, restricted to
// the allow-list when one is configured.
func (g *GoogleSheets) Spreadsheets(ctx context.Context) ([]Spreadsheet, error) {
	var out []Spreadsheet
	call := g.drive.Files.List().
		Q(spreadsheetQuery).
		Fields("nextPageToken, files(id, name)").
		OrderBy("name").
		PageSize(100)
	err := call.Pages(ctx, func(page *drive.FileList) error {
		for _, f := range page.Files {
			if len(g.allowed) > 0 && !slices.Contains(g.allowed, f.Name) {
				continue
			}
			out = append(out, Spreadsheet{ID: f.Id, Name: f.Name})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing spreadsheets: %w", err)
	}

	g.mu.Lock()
	g.spreadsheets = out
	g.mu.Unlock()
	return out, nil
}

// SelectSpreadsheet makes name current and returns its worksheet titles.
// The worksheet selection is cleared.
func (g *GoogleSheets) SelectSpreadsheet(ctx context.Context, name string) ([]string, error) {
	g.mu.Lock()
	list := g.spreadsheets
	g.mu.Unlock()
	if list == nil {
		var err error
		if list, err = g.Spreadsheets(ctx); err != nil {
			return nil, err
		}
	}

	idx := slices.IndexFunc(list, func(s Spreadsheet) bool { return s.Name == name })
	if idx < 0 {
		return nil, fmt.Errorf("spreadsheet %q: %w", name, ErrNotFound)
	}
	target := list[idx]

	resp, err := g.sheets.Spreadsheets.Get(target.ID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("reading spreadsheet %q: %w", name, err)
	}
	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}

	g.mu.Lock()
	g.current = &target
	g.titles = titles
	g.sheet = ""
	g.mu.Unlock()
	return titles, nil
}

func (g *GoogleSheets) SelectSheet(title string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return ErrNoSheetSelected
	}
	if !slices.Contains(g.titles, title) {
		return fmt.Errorf("worksheet %q: %w", title, ErrNotFound)
	}
	g.sheet = title
	return nil
}

// Selection returns the current spreadsheet and worksheet names, either of
// which may be empty.
func (g *GoogleSheets) Selection() (spreadsheet, sheet string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != nil {
		spreadsheet = g.current.Name
	}
	return spreadsheet, g.sheet
}

// Titles returns the worksheets of the current spreadsheet.
func (g *GoogleSheets) Titles() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.titles)
}

// Restore selects the last used spreadsheet and worksheet when they still
// exist, otherwise the first of each.
func (g *GoogleSheets) Restore(ctx context.Context, lastSpreadsheet, lastSheet string) error {
	list, err := g.Spreadsheets(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return fmt.Errorf("no spreadsheets shared with this account: %w", ErrNotFound)
	}
	name := list[0].Name
	if slices.ContainsFunc(list, func(s Spreadsheet) bool { return s.Name == lastSpreadsheet }) {
		name = lastSpreadsheet
	}
	titles, err := g.SelectSpreadsheet(ctx, name)
	if err != nil {
		return err
	}
	if len(titles) == 0 {
		return fmt.Errorf("spreadsheet %q has no worksheets: %w", name, ErrNotFound)
	}
	title := titles[0]
	if slices.Contains(titles, lastSheet) {
		title = lastSheet
	}
	return g.SelectSheet(title)
}

// Save writes the text into the record's cell of the selected worksheet.
func (g *GoogleSheets) Save(ctx context.Context, rec Record) error {
	g.mu.Lock()
	current, sheet := g.current, g.sheet
	g.mu.Unlock()
	if current == nil || sheet == "" {
		return ErrNoSheetSelected
	}

	rng := a1Range(sheet, rec.Cell)
	vr := &sheets.ValueRange{Values: [][]interface{}{{rec.Text}}}
	_, err := g.sheets.Spreadsheets.Values.Update(current.ID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("writing %s: %w", rng, err)
	}
	return nil
}

// a1Range quotes the worksheet title for A1 notation. Apostrophes in the
// title are doubled.
func a1Range(sheet string, cell Address) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cell.String()
}
