package transcriber

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"
)

// TracedClient is an HTTP client that reports per-phase timings of every
// upload. The proxy backend logs them next to the transcript.
type TracedClient struct {
	client *http.Client
}

func NewTracedClient(timeout time.Duration) *TracedClient {
	return &TracedClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 1,
				IdleConnTimeout:     2 * time.Minute,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

type TracedResponse struct {
	Body       []byte
	StatusCode int
	Header     http.Header
	Metrics    *NetworkMetrics
}

// phases collects httptrace callbacks into a NetworkMetrics.
type phases struct {
	m NetworkMetrics

	connAsked, dnsAt, dialAt, tlsAt time.Time
	connGot, headersOut, bodyOut    time.Time
	firstByte                       time.Time
}

func (p *phases) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		GetConn: func(string) { p.connAsked = time.Now() },
		GotConn: func(info httptrace.GotConnInfo) {
			p.connGot = time.Now()
			p.m.ConnWait = p.connGot.Sub(p.connAsked)
			p.m.ConnReused = info.Reused
		},
		DNSStart:     func(httptrace.DNSStartInfo) { p.dnsAt = time.Now() },
		DNSDone:      func(httptrace.DNSDoneInfo) { p.m.DNS = time.Since(p.dnsAt) },
		ConnectStart: func(string, string) { p.dialAt = time.Now() },
		ConnectDone:  func(string, string, error) { p.m.TCP = time.Since(p.dialAt) },
		TLSHandshakeStart: func() {
			p.tlsAt = time.Now()
		},
		TLSHandshakeDone: func(cs tls.ConnectionState, _ error) {
			p.m.TLS = time.Since(p.tlsAt)
			p.m.TLSProtocol = tls.VersionName(cs.Version)
		},
		WroteHeaders: func() {
			p.headersOut = time.Now()
			p.m.ReqHeaders = p.headersOut.Sub(p.connGot)
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			p.bodyOut = time.Now()
			p.m.ReqBody = p.bodyOut.Sub(p.headersOut)
		},
		GotFirstResponseByte: func() {
			p.firstByte = time.Now()
			p.m.TTFB = p.firstByte.Sub(p.bodyOut)
		},
	}
}

// Do sends req and reads the whole body. A transport error is returned as is
// so the caller can classify it.
func (c *TracedClient) Do(req *http.Request) (*TracedResponse, error) {
	var p phases
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), p.trace()))
	began := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !p.firstByte.IsZero() {
		p.m.Download = time.Since(p.firstByte)
	}
	p.m.Total = time.Since(began)

	return &TracedResponse{
		Body:       body,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Metrics:    &p.m,
	}, nil
}

// WarmConnection opens a connection to url with a HEAD request so the first
// upload after startup skips the handshake. It returns the TLS time, zero
// when the request failed or the URL is plain HTTP.
func (c *TracedClient) WarmConnection(url string) time.Duration {
	var p phases
	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return 0
	}
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), p.trace()))
	resp, err := c.client.Do(req)
	if err != nil {
		return 0
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return p.m.TLS
}
