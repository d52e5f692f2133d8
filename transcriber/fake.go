package transcriber

import (
	"context"
	"sync"
	"time"

	"voxsheet/audio"
)

// Fake returns a scripted result and records what it was asked to transcribe.
type Fake struct {
	mu     sync.Mutex
	result Result
	delay  time.Duration
	calls  [][]byte
}

func NewFake(text string, confidence float64) *Fake {
	return &Fake{result: Result{Text: text, Confidence: confidence}}
}

// NewFakeFailure returns a fake that always fails with kind.
func NewFakeFailure(kind ErrorKind, detail string) *Fake {
	return &Fake{result: fail(kind, detail)}
}

// SetDelay makes Transcribe block for d, or until ctx is done.
func (f *Fake) SetDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(ctx context.Context, pcm []byte, _ audio.CaptureConfig) Result {
	f.mu.Lock()
	f.calls = append(f.calls, append([]byte(nil), pcm...))
	delay, r := f.delay, f.result
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fail(Timeout, ctx.Err().Error())
		}
	}
	return r
}

// Calls returns the audio of every Transcribe call so far.
func (f *Fake) Calls() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.calls...)
}
