package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFrame(t *testing.T) {
	m := DefaultMetrics
	frames := testutil.ToFloat64(m.CaptureFrames)
	readErrs := testutil.ToFloat64(m.CaptureReadErrors)

	m.RecordFrame(nil)
	m.RecordFrame(nil)
	m.RecordFrame(errors.New("overflow"))

	if got := testutil.ToFloat64(m.CaptureFrames) - frames; got != 2 {
		t.Errorf("frames delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CaptureReadErrors) - readErrs; got != 1 {
		t.Errorf("read errors delta = %v, want 1", got)
	}
}

func TestRecordSinkWrite(t *testing.T) {
	m := DefaultMetrics
	ok := m.SinkWrites.WithLabelValues("test", OutcomeOK)
	bad := m.SinkWrites.WithLabelValues("test", OutcomeError)
	okBefore, badBefore := testutil.ToFloat64(ok), testutil.ToFloat64(bad)

	m.RecordSinkWrite("test", nil)
	m.RecordSinkWrite("test", errors.New("quota"))

	if testutil.ToFloat64(ok)-okBefore != 1 || testutil.ToFloat64(bad)-badBefore != 1 {
		t.Error("sink write counters not incremented")
	}
}

func TestServerExposesMetrics(t *testing.T) {
	DefaultMetrics.RecordTranscription("fake", OutcomeOK, 300*time.Millisecond)

	s := NewServer("127.0.0.1:0")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Shutdown(context.Background()) })

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `voxsheet_transcriptions_total{backend="fake",outcome="ok"}`) {
		t.Errorf("metrics output missing transcription counter:\n%s", body)
	}
}
