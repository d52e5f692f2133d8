package sheet

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type fakeGoogle struct {
	mu        sync.Mutex
	writePath string
	writeBody string
	writeOpt  string
	failWrite bool
}

func (f *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/drive/v3/files":
		io.WriteString(w, `{"files":[{"id":"s1","name":"음성기록"},{"id":"s2","name":"회의록"}]}`)
	case r.Method == http.MethodGet && r.URL.Path == "/v4/spreadsheets/s1":
		io.WriteString(w, `{"spreadsheetId":"s1","sheets":[{"properties":{"title":"시트1"}},{"properties":{"title":"시트2"}}]}`)
	case r.Method == http.MethodGet && r.URL.Path == "/v4/spreadsheets/s2":
		io.WriteString(w, `{"spreadsheetId":"s2","sheets":[{"properties":{"title":"요약"}},{"properties":{"title":"Bob's log"}}]}`)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/"):
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.writePath = r.URL.Path
		f.writeBody = string(body)
		f.writeOpt = r.URL.Query().Get("valueInputOption")
		fail := f.failWrite
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"error":{"code":403,"message":"denied"}}`)
			return
		}
		io.WriteString(w, `{"spreadsheetId":"s1","updatedCells":1}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestSheets(t *testing.T, allowed []string) (*GoogleSheets, *fakeGoogle) {
	t.Helper()
	fake := &fakeGoogle{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	ss, err := sheets.NewService(ctx, option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	if err != nil {
		t.Fatal(err)
	}
	ds, err := drive.NewService(ctx, option.WithEndpoint(srv.URL+"/drive/v3/"), option.WithoutAuthentication())
	if err != nil {
		t.Fatal(err)
	}
	return NewGoogleSheetsWithServices(ss, ds, allowed), fake
}

func TestSpreadsheetsAllowList(t *testing.T) {
	g, _ := newTestSheets(t, nil)
	all, err := g.Spreadsheets(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("got %v, want 2 spreadsheets", all)
	}

	g, _ = newTestSheets(t, []string{"회의록"})
	some, err := g.Spreadsheets(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(some) != 1 || some[0].Name != "회의록" || some[0].ID != "s2" {
		t.Errorf("allow-listed = %v", some)
	}
}

func TestSelectAndSave(t *testing.T) {
	g, fake := newTestSheets(t, nil)
	ctx := context.Background()

	if err := g.Save(ctx, Record{Text: "x", Cell: MustParseAddress("A1")}); !errors.Is(err, ErrNoSheetSelected) {
		t.Errorf("Save before selection = %v, want ErrNoSheetSelected", err)
	}

	titles, err := g.SelectSpreadsheet(ctx, "음성기록")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(titles, ",") != "시트1,시트2" {
		t.Errorf("titles = %v", titles)
	}
	if err := g.Save(ctx, Record{Text: "x", Cell: MustParseAddress("A1")}); !errors.Is(err, ErrNoSheetSelected) {
		t.Errorf("Save without worksheet = %v, want ErrNoSheetSelected", err)
	}
	if err := g.SelectSheet("없음"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SelectSheet(unknown) = %v, want ErrNotFound", err)
	}
	if err := g.SelectSheet("시트2"); err != nil {
		t.Fatal(err)
	}

	if err := g.Save(ctx, Record{Text: "안녕하세요", Cell: MustParseAddress("B3")}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if !strings.HasSuffix(fake.writePath, "/values/'시트2'!B3") {
		t.Errorf("write path = %q", fake.writePath)
	}
	if fake.writeOpt != "RAW" {
		t.Errorf("valueInputOption = %q, want RAW", fake.writeOpt)
	}
	var vr struct {
		Values [][]string `json:"values"`
	}
	if err := json.Unmarshal([]byte(fake.writeBody), &vr); err != nil {
		t.Fatalf("body %q: %v", fake.writeBody, err)
	}
	if len(vr.Values) != 1 || len(vr.Values[0]) != 1 || vr.Values[0][0] != "안녕하세요" {
		t.Errorf("values = %v", vr.Values)
	}
}

func TestSaveQuotesApostropheInSheetTitle(t *testing.T) {
	g, fake := newTestSheets(t, nil)
	ctx := context.Background()
	if err := g.Restore(ctx, "회의록", "Bob's log"); err != nil {
		t.Fatal(err)
	}
	if _, sh := g.Selection(); sh != "Bob's log" {
		t.Fatalf("worksheet = %q", sh)
	}
	if err := g.Save(ctx, Record{Text: "메모", Cell: MustParseAddress("C4")}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if !strings.HasSuffix(fake.writePath, "/values/'Bob''s log'!C4") {
		t.Errorf("write path = %q", fake.writePath)
	}
}

func TestA1Range(t *testing.T) {
	tests := []struct {
		sheet, want string
	}{
		{"시트1", "'시트1'!B2"},
		{"Bob's log", "'Bob''s log'!B2"},
		{"''", "!B2"},
	}
	for _, tt := range tests {
		if got := a1Range(tt.sheet, MustParseAddress("B2")); got != tt.want {
			t.Errorf("a1Range(%q) = %q, want %q", tt.sheet, got, tt.want)
		}
	}
}

func TestSelectSpreadsheetClearsSheet(t *testing.T) {
	g, _ := newTestSheets(t, nil)
	ctx := context.Background()
	if _, err := g.SelectSpreadsheet(ctx, "음성기록"); err != nil {
		t.Fatal(err)
	}
	if err := g.SelectSheet("시트1"); err != nil {
		t.Fatal(err)
	}
	if _, err := g.SelectSpreadsheet(ctx, "회의록"); err != nil {
		t.Fatal(err)
	}
	if ss, sh := g.Selection(); ss != "회의록" || sh != "" {
		t.Errorf("Selection() = %q, %q", ss, sh)
	}
	if _, err := g.SelectSpreadsheet(ctx, "없는 문서"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown spreadsheet = %v, want ErrNotFound", err)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	g, _ := newTestSheets(t, nil)
	if err := g.Restore(ctx, "회의록", "요약"); err != nil {
		t.Fatal(err)
	}
	if ss, sh := g.Selection(); ss != "회의록" || sh != "요약" {
		t.Errorf("Selection() = %q, %q", ss, sh)
	}

	g, _ = newTestSheets(t, nil)
	if err := g.Restore(ctx, "지워진 문서", "시트9"); err != nil {
		t.Fatal(err)
	}
	if ss, sh := g.Selection(); ss != "음성기록" || sh != "시트1" {
		t.Errorf("fallback Selection() = %q, %q", ss, sh)
	}
}

func TestSaveErrorFallsBackThroughRouter(t *testing.T) {
	g, fake := newTestSheets(t, nil)
	ctx := context.Background()
	if err := g.Restore(ctx, "", ""); err != nil {
		t.Fatal(err)
	}
	fake.mu.Lock()
	fake.failWrite = true
	fake.mu.Unlock()

	local := NewLocalFile(t.TempDir() + "/fb.csv")
	r := &Router{Primary: g, Fallback: local}
	name, err := r.Save(ctx, Record{Text: "실패 후 저장", Confidence: 0.7, Cell: MustParseAddress("A1")})
	if err != nil || name != "local_csv" {
		t.Fatalf("Save = %q, %v", name, err)
	}
	rows, _ := local.ReadAll()
	if len(rows) != 1 || rows[0][1] != "실패 후 저장" {
		t.Errorf("rows = %v", rows)
	}
}
