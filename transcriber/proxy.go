package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voxsheet/audio"
)

// Proxy posts WAV audio to an HTTP transcription service fronting the
// speech API.
type Proxy struct {
	client *TracedClient
	url    string
	lang   string
}

func NewProxy(url, lang string, timeout time.Duration) *Proxy {
	return &Proxy{
		client: NewTracedClient(timeout),
		url:    url,
		lang:   lang,
	}
}

func (p *Proxy) Name() string { return BackendProxy }

func (p *Proxy) Warm() { p.client.WarmConnection(p.url) }

type proxyResponse struct {
	Success    bool    `json:"success"`
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error"`
}

func (p *Proxy) Transcribe(ctx context.Context, pcm []byte, cfg audio.CaptureConfig) Result {
	start := time.Now()
	r := p.transcribe(ctx, pcm, cfg)
	r.Latency = time.Since(start)
	return r
}

func (p *Proxy) transcribe(ctx context.Context, pcm []byte, cfg audio.CaptureConfig) Result {
	wav, err := audio.EncodeWAV(pcm, cfg)
	if err != nil {
		return fail(ServerError, err.Error())
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return fail(ServerError, err.Error())
	}
	if _, err := part.Write(wav); err != nil {
		return fail(ServerError, err.Error())
	}
	writer.WriteField("language", p.lang)
	writer.WriteField("sample_rate", strconv.Itoa(int(cfg.SampleRate)))
	writer.WriteField("encoding", "LINEAR16")
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, &body)
	if err != nil {
		return fail(ServerError, err.Error())
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r := fail(ServerError, fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(resp.Body))))
		r.Metrics = resp.Metrics
		return r
	}

	var pr proxyResponse
	if err := json.Unmarshal(resp.Body, &pr); err != nil {
		r := fail(ServerError, fmt.Sprintf("invalid response: %v", err))
		r.Metrics = resp.Metrics
		return r
	}

	var r Result
	text := strings.TrimSpace(pr.Transcript)
	switch {
	case !pr.Success && pr.Error == "" && text == "":
		// the service found no speech
		r = fail(NoResult, "")
	case !pr.Success:
		detail := pr.Error
		if detail == "" {
			detail = "request " + firstNonEmpty(resp.Header, "X-Request-Id", "X-Cloud-Trace-Context") + " failed"
		}
		r = fail(ServerError, detail)
	case text == "":
		r = fail(NoResult, "")
	default:
		r = Result{Text: text, Confidence: pr.Confidence}
	}
	r.Metrics = resp.Metrics
	return r
}
