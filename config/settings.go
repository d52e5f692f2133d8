package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"

	"voxsheet/log"
)

const (
	DefaultSpreadsheet = "음성기록"
	DefaultSheet       = "시트1"
	DefaultCell        = "A1"
)

type settingsFile struct {
	LastSpreadsheet     string   `json:"last_spreadsheet"`
	LastSheet           string   `json:"last_sheet"`
	LastCell            string   `json:"last_cell"`
	LastRow             int      `json:"last_row"`
	LastCol             int      `json:"last_col"`
	AllowedSpreadsheets []string `json:"allowed_spreadsheets"`
}

func defaultSettings() settingsFile {
	return settingsFile{
		LastSpreadsheet: DefaultSpreadsheet,
		LastSheet:       DefaultSheet,
		LastCell:        DefaultCell,
		LastRow:         1,
		LastCol:         1,
	}
}

// Settings is the small JSON document that remembers the last selection
// between runs. Every setter rewrites the file.
type Settings struct {
	mu   sync.Mutex
	path string
	data settingsFile
}

// LoadSettings never fails: a missing or unreadable file yields defaults.
func LoadSettings(path string) *Settings {
	s := &Settings{path: path, data: defaultSettings()}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("reading settings %s: %v", path, err)
		}
		return s
	}
	var f settingsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		log.Warnf("settings %s is corrupt, using defaults: %v", path, err)
		return s
	}
	if f.LastSpreadsheet == "" {
		f.LastSpreadsheet = DefaultSpreadsheet
	}
	if f.LastSheet == "" {
		f.LastSheet = DefaultSheet
	}
	if f.LastCell == "" {
		f.LastCell = DefaultCell
	}
	s.data = f
	return s
}

func (s *Settings) Path() string { return s.path }

func (s *Settings) LastSpreadsheet() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LastSpreadsheet
}

func (s *Settings) LastSheet() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LastSheet
}

func (s *Settings) LastCell() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.LastCell
}

func (s *Settings) AllowedSpreadsheets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data.AllowedSpreadsheets)
}

func (s *Settings) SetLastSpreadsheet(name string) error {
	return s.update(func(f *settingsFile) { f.LastSpreadsheet = name })
}

func (s *Settings) SetLastSheet(name string) error {
	return s.update(func(f *settingsFile) { f.LastSheet = name })
}

// SetLastCell stores the cell along with its 1-based row and column.
func (s *Settings) SetLastCell(cell string, row, col int) error {
	return s.update(func(f *settingsFile) {
		f.LastCell = cell
		f.LastRow = row
		f.LastCol = col
	})
}

func (s *Settings) SetAllowedSpreadsheets(names []string) error {
	return s.update(func(f *settingsFile) { f.AllowedSpreadsheets = slices.Clone(names) })
}

func (s *Settings) update(fn func(*settingsFile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, append(raw, '\n'), 0644); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
