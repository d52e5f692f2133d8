package transcriber

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTracedClientDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "abc")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewTracedClient(5 * time.Second)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusAccepted || string(resp.Body) != "ok" {
		t.Errorf("resp = %d %q", resp.StatusCode, resp.Body)
	}
	if resp.Header.Get("X-Request-Id") != "abc" {
		t.Error("header not returned")
	}
	if resp.Metrics.Total <= 0 {
		t.Error("total time not measured")
	}
	if resp.Metrics.TLSProtocol != "" {
		t.Errorf("plain http reported TLS %q", resp.Metrics.TLSProtocol)
	}
}

func TestTracedClientReusesConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewTracedClient(5 * time.Second)
	if d := c.WarmConnection(srv.URL); d != 0 {
		t.Errorf("warm over plain http = %v, want 0", d)
	}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Metrics.ConnReused {
		t.Error("request after warm-up should reuse the connection")
	}
}

func TestWarmConnectionBadURL(t *testing.T) {
	c := NewTracedClient(time.Second)
	if d := c.WarmConnection("://bad"); d != 0 {
		t.Errorf("got %v", d)
	}
}
