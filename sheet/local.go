package sheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
)

const DefaultCSVPath = "음성인식_데이터_GoogleCloud.csv"

const bom = "\ufeff"

const TimestampFormat = "2006-01-02 15:04:05"

var csvHeader = []string{"타임스탬프", "인식된 텍스트", "신뢰도"}

// LocalFile appends records to a CSV file that spreadsheet programs open
// as UTF-8.
type LocalFile struct {
	mu   sync.Mutex
	path string
}

func NewLocalFile(path string) *LocalFile {
	if path == "" {
		path = DefaultCSVPath
	}
	return &LocalFile{path: path}
}

func (l *LocalFile) Name() string { return "local_csv" }

func (l *LocalFile) Path() string { return l.path }

func (l *LocalFile) Save(_ context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", l.path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if _, err := f.WriteString(bom); err != nil {
			f.Close()
			return err
		}
		w.Write(csvHeader)
	}
	w.Write([]string{
		rec.Time.Format(TimestampFormat),
		rec.Text,
		strconv.FormatFloat(rec.Confidence, 'f', -1, 64),
	})
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", l.path, err)
	}
	return f.Close()
}

// ReadAll returns every data row, without the header.
func (l *LocalFile) ReadAll() ([][]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	if len(data) >= 3 && string(data[:3]) == bom {
		data = data[3:]
	}
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}
	return rows, nil
}
