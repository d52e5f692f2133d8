package transcriber

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"voxsheet/audio"
)

type NetworkMetrics struct {
	DNS         time.Duration
	ConnWait    time.Duration
	TCP         time.Duration
	TLS         time.Duration
	ReqHeaders  time.Duration
	ReqBody     time.Duration
	TTFB        time.Duration
	Download    time.Duration
	Total       time.Duration
	ConnReused  bool
	TLSProtocol string
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

func firstNonEmpty(h http.Header, keys ...string) string {
	for _, k := range keys {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return "?"
}

type ErrorKind int

const (
	Timeout ErrorKind = iota + 1
	NetworkError
	ServerError
	NoResult
)

func (k ErrorKind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case NetworkError:
		return "network_error"
	case ServerError:
		return "server_error"
	case NoResult:
		return "no_result"
	}
	return "unknown"
}

// Failure is a transcription that did not produce text.
type Failure struct {
	Kind   ErrorKind
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return f.Kind.String()
	}
	return f.Kind.String() + ": " + f.Detail
}

const detailLimit = 50

const noResultText = "[음성 인식 실패] 음성을 인식할 수 없습니다"

// Display renders the failure the way it is shown and saved in place of a transcript.
func (f *Failure) Display() string {
	switch f.Kind {
	case NoResult:
		return noResultText
	case Timeout:
		return "[시간 초과] " + truncate(f.Detail)
	case NetworkError:
		return "[네트워크 오류] " + truncate(f.Detail)
	}
	return "[API 오류] " + truncate(f.Detail)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= detailLimit {
		return s
	}
	return string(r[:detailLimit]) + "..."
}

type Result struct {
	Text       string
	Confidence float64
	Failure    *Failure
	Metrics    *NetworkMetrics
	Latency    time.Duration
}

func (r Result) Ok() bool { return r.Failure == nil }

// DisplayText is the transcript, or the failure's display string.
func (r Result) DisplayText() string {
	if r.Failure != nil {
		return r.Failure.Display()
	}
	return r.Text
}

// Line formats a result for the transcript view: "[15:04:05] text (신뢰도: 0.91)".
func Line(at time.Time, text string, confidence float64) string {
	line := fmt.Sprintf("[%s] %s", at.Format("15:04:05"), text)
	if confidence > 0 {
		line += fmt.Sprintf(" (신뢰도: %.2f)", confidence)
	}
	return line
}

func fail(kind ErrorKind, detail string) Result {
	return Result{Failure: &Failure{Kind: kind, Detail: detail}}
}

// Client turns one buffer of captured PCM into text. Implementations never
// return Go errors: every failure is reported through Result.Failure.
type Client interface {
	Name() string
	Transcribe(ctx context.Context, pcm []byte, cfg audio.CaptureConfig) Result
}

// Warmer is implemented by clients that can open their connection ahead of
// the first request.
type Warmer interface {
	Warm()
}

const (
	BackendGoogle = "google"
	BackendProxy  = "proxy"

	FormatLinear16 = "linear16"
	FormatFLAC     = "flac"

	DefaultLanguage = "ko-KR"
	DefaultTimeout  = 60 * time.Second
)

type Config struct {
	Backend     string
	ProxyURL    string
	Credentials string
	Language    string
	Format      string
	Timeout     time.Duration
}

func New(ctx context.Context, cfg Config) (Client, error) {
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	switch cfg.Backend {
	case BackendGoogle, "":
		return NewGoogle(ctx, cfg.Credentials, cfg.Language, cfg.Format)
	case BackendProxy:
		if cfg.ProxyURL == "" {
			return nil, fmt.Errorf("proxy backend needs a URL")
		}
		return NewProxy(cfg.ProxyURL, cfg.Language, cfg.Timeout), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// classify maps transport level errors onto failure kinds.
func classify(err error) Result {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fail(Timeout, err.Error())
	case errors.As(err, &netErr) && netErr.Timeout():
		return fail(Timeout, err.Error())
	case errors.As(err, &netErr):
		return fail(NetworkError, err.Error())
	case strings.Contains(err.Error(), "connection refused"):
		return fail(NetworkError, err.Error())
	}
	return fail(ServerError, err.Error())
}
