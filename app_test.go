package main

import (
	"path/filepath"
		"testing"
	"time"

	"voxsheet/audio"
	"voxsheet/config"
	"voxsheet/session"
	"voxsheet/transcriber"
)

// newTestApp builds an app over a replayed microphone. The returned sink
// is safe to read once the run has been recorded.
func newTestApp(t *testing.T, client transcriber.Client, cell string) (*app, *recordSink, config.Options) {
	t.Helper()
	dir := t.TempDir()
	opts := config.Options{
		Backend:      transcriber.BackendProxy,
		Language:     transcriber.DefaultLanguage,
		Format:       transcriber.FormatLinear16,
		Timeout:      transcriber.DefaultTimeout,
		SettingsPath: filepath.Join(dir, "settings.json"),
		CSVPath:      filepath.Join(dir, "out.csv"),
	}

	pcm := make([]byte, 32000)
	for i := range pcm {
		pcm[i] = byte(i * 7)
	}
	m, err := newMic(audio.NewFakeContextPCM(pcm, false), audio.DefaultCaptureConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Close)

	a, err := newApp(appConfig{opts: opts, cell: cell, open: m.Open, device: "fake", client: client})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(a.Close)

	sink := &recordSink{}
	idle := make(chan struct{}, 1)
	go func() {
		for ev := range a.sess.Events() {
			a.dispatch(ev, sink)
			if sc, ok := ev.(session.StateChanged); ok && sc.State == session.Idle {
				idle <- struct{}{}
			}
		}
	}()
	testIdle[a] = idle
	return a, sink, opts
}

var testIdle = map[*app]chan struct{}{}

// record runs one short recording and waits until its events are dispatched.
func record(t *testing.T, a *app) {
	t.Helper()
	if !a.Start() {
		t.Fatal("Start returned false on an idle app")
	}
	time.Sleep(100 * time.Millisecond)
	a.Stop()
	a.sess.Wait()
	select {
	case <-testIdle[a]:
	case <-time.After(5 * time.Second):
		t.Fatal("event pump did not see the run finish")
	}
}

func TestAppSavesToCSVAndAdvances(t *testing.T) {
	a, _, opts := newTestApp(t, transcriber.NewFake("테스트 문장", 0.75), "B4")
	record(t, a)

	rows, err := a.local.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0][1] != "테스트 문장" || rows[0][2] != "0.75" {
		t.Fatalf("rows = %v", rows)
	}
	if got := a.Cell().String(); got != "B5" {
		t.Errorf("cell = %s, want B5", got)
	}
	if got := config.LoadSettings(opts.SettingsPath).LastCell(); got != "B5" {
		t.Errorf("persisted cell = %q, want B5", got)
	}
	if got := a.LastText(); got != "테스트 문장" {
		t.Errorf("LastText = %q", got)
	}
}

func TestAppStartsFromPersistedCell(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := config.LoadSettings(path).SetLastCell("D9", 9, 4); err != nil {
		t.Fatal(err)
	}
	opts := config.Options{SettingsPath: path, CSVPath: filepath.Join(dir, "out.csv"), Timeout: transcriber.DefaultTimeout}
	a, err := newApp(appConfig{opts: opts, open: func() (audio.Stream, error) { return nil, nil }, client: transcriber.NewFake("", 0)})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if got := a.Cell().String(); got != "D9" {
		t.Errorf("cell = %s, want D9", got)
	}
}

func TestAppInvalidStartCellFallsBack(t *testing.T) {
	dir := t.TempDir()
	opts := config.Options{SettingsPath: filepath.Join(dir, "s.json"), CSVPath: filepath.Join(dir, "out.csv"), Timeout: transcriber.DefaultTimeout}
	a, err := newApp(appConfig{opts: opts, cell: "9Z", open: func() (audio.Stream, error) { return nil, nil }, client: transcriber.NewFake("", 0)})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if got := a.Cell().String(); got != "A1" {
		t.Errorf("cell = %s, want A1", got)
	}
}

func TestAppFailureIsSavedAndReported(t *testing.T) {
	a, sink, _ := newTestApp(t, transcriber.NewFakeFailure(transcriber.Timeout, "deadline"), "A1")
	record(t, a)

	rows, err := a.local.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0][1] != "[시간 초과] deadline" {
		t.Fatalf("rows = %v", rows)
	}
	if a.LastText() != "" {
		t.Errorf("failed result should not be remembered, got %q", a.LastText())
	}
	if got := a.Cell().String(); got != "A2" {
		t.Errorf("cell = %s, want A2", got)
	}
	if len(sink.failed) != 1 || !sink.failed[0] {
		t.Errorf("sink failed flags = %v", sink.failed)
	}
}

func TestAppStartWhileBusy(t *testing.T) {
	a, _, _ := newTestApp(t, transcriber.NewFake("바쁨", 0.5), "A1")
	if !a.Start() {
		t.Fatal("first Start should begin a run")
	}
	if a.Start() {
		t.Error("second Start should be ignored while recording")
	}
	time.Sleep(50 * time.Millisecond)
	a.Stop()
	a.sess.Wait()
	<-testIdle[a]
}

func TestAppTargetWithoutSheets(t *testing.T) {
	a, _, opts := newTestApp(t, transcriber.NewFake("x", 1), "A1")

	if a.SheetsAvailable() {
		t.Error("sheets should be unavailable")
	}
	if got := a.Target(); got != "CSV: "+opts.CSVPath {
		t.Errorf("Target = %q", got)
	}
	if _, err := a.NextSheet(); err != errSheetsUnavailable {
		t.Errorf("NextSheet err = %v", err)
	}
	if _, err := a.Spreadsheets(); err != errSheetsUnavailable {
		t.Errorf("Spreadsheets err = %v", err)
	}
}

func TestAppCopyLastWithoutText(t *testing.T) {
	a := &app{}
	text, err := a.CopyLast()
	if err != nil || text != "" {
		t.Errorf("CopyLast = %q, %v; want empty and no error", text, err)
	}
}
