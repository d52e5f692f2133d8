// Package session runs one recording at a time: capture up to the frame
// deadline, transcribe, save the result and move the cell pointer.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"voxsheet/audio"
	"voxsheet/log"
	"voxsheet/metrics"
	"voxsheet/publish"
	"voxsheet/sheet"
	"voxsheet/transcriber"
)

const (
	eventBuffer = 256
	saveTimeout = 30 * time.Second
)

type Publisher interface {
	Publish(ctx context.Context, ev publish.TranscriptEvent) error
}

type Config struct {
	Capture audio.CaptureConfig
	Open    audio.Opener
	Client  transcriber.Client
	Sinks   *sheet.Router
	Pointer *sheet.Pointer

	// Optional.
	Publisher Publisher
	Selection func() (spreadsheet, sheet string)
	Metrics   *metrics.Metrics
	Timeout   time.Duration
	Device    string
}

type Session struct {
	cfg    Config
	state  atomic.Int32
	stop   atomic.Bool
	events chan Event

	mu   sync.Mutex
	done chan struct{}

	publishing sync.WaitGroup
}

func New(cfg Config) *Session {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.DefaultMetrics
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = transcriber.DefaultTimeout
	}
	if cfg.Capture.FrameSize == 0 {
		cfg.Capture = audio.DefaultCaptureConfig()
	}
	return &Session{cfg: cfg, events: make(chan Event, eventBuffer)}
}

func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) State() State { return State(s.state.Load()) }

// Start begins a run and reports whether it did. While a run is recording
// or transcribing, Start does nothing and returns false.
func (s *Session) Start() bool {
	if !s.state.CompareAndSwap(int32(Idle), int32(Recording)) {
		return false
	}
	done := make(chan struct{})
	s.mu.Lock()
	s.done = done
	s.mu.Unlock()
	go s.run(done)
	return true
}

// Stop ends capture early. Frames captured so far are still transcribed.
// It has no effect unless the session is recording.
func (s *Session) Stop() {
	if s.State() == Recording {
		s.stop.Store(true)
	}
}

// Wait blocks until the current run, if any, is back to Idle.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Session) emit(ev Event) {
	s.events <- ev
}

func (s *Session) emitLevel(rms float64) {
	select {
	case s.events <- Level{RMS: rms}:
	default:
	}
}

func (s *Session) finish(msg string) {
	s.stop.Store(false)
	s.state.Store(int32(Idle))
	s.emit(StateChanged{State: Idle, Message: msg})
}

func (s *Session) run(done chan struct{}) {
	defer close(done)

	m := s.cfg.Metrics
	m.RecordSessionStart()
	log.SessionStart(s.cfg.Client.Name(), s.cfg.Device, s.cfg.Pointer.Get().String())
	s.emit(StateChanged{State: Recording, Message: MsgRecording})

	if w, ok := s.cfg.Client.(transcriber.Warmer); ok {
		go w.Warm()
	}

	stream, err := s.cfg.Open()
	if err != nil {
		log.Errorf("opening capture: %v", err)
		log.SessionEnd("capture_error", 0)
		s.emit(Failed{Err: &CaptureError{Err: err}})
		s.finish(MsgReady)
		return
	}
	pcm, frames, reason := s.capture(stream)
	stream.Close()
	log.SessionEnd(reason, frames)

	if len(pcm) == 0 {
		m.RecordEmptySession()
		s.emit(Failed{Err: ErrEmptyCapture})
		s.finish(MsgReady)
		return
	}

	s.state.Store(int32(Transcribing))
	s.emit(StateChanged{State: Transcribing, Message: MsgTranscribing})

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	res := s.cfg.Client.Transcribe(ctx, pcm, s.cfg.Capture)
	cancel()

	ev, publishable := s.deliver(res, s.cfg.Capture.Seconds(len(pcm)))
	if publishable {
		s.publishing.Add(1)
	}
	s.finish(MsgDone)
	if publishable {
		go s.publish(ev)
	}
}

// publish runs after the session is back to Idle. Start does not wait for it.
func (s *Session) publish(ev publish.TranscriptEvent) {
	defer s.publishing.Done()
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.cfg.Publisher.Publish(ctx, ev); err != nil {
		log.Warnf("publishing transcript event: %v", err)
	}
}

// Drain waits for transcript events still being published.
func (s *Session) Drain() {
	s.publishing.Wait()
}

// capture reads at most MaxFrames frame slots. A failed read uses up its
// slot so the loop always ends.
func (s *Session) capture(stream audio.Stream) ([]byte, int, string) {
	cfg := s.cfg.Capture
	maxFrames := cfg.MaxFrames()
	frameDur := cfg.FrameDuration()
	buf := make([]byte, 0, maxFrames*cfg.FrameBytes())
	frames := 0
	lastSec := -1

	for slot := 0; slot < maxFrames; slot++ {
		if s.stop.Load() {
			return buf, frames, "stopped"
		}

		left := time.Duration(maxFrames-slot) * frameDur
		if sec := int((left + time.Second - 1) / time.Second); sec != lastSec {
			lastSec = sec
			s.emit(Countdown{Remaining: sec})
		}

		frame, err := stream.ReadFrame()
		s.cfg.Metrics.RecordFrame(err)
		if err != nil {
			if errors.Is(err, audio.ErrStreamClosed) {
				return buf, frames, "stream_closed"
			}
			log.Warnf("audio read (slot %d): %v", slot, err)
			continue
		}
		buf = append(buf, frame...)
		frames++
		s.emitLevel(audio.RMS(frame))
	}
	return buf, frames, "deadline"
}

func (s *Session) deliver(res transcriber.Result, audioS float64) (publish.TranscriptEvent, bool) {
	backend := s.cfg.Client.Name()
	outcome := metrics.OutcomeOK
	failureKind := ""
	if res.Failure != nil {
		outcome = res.Failure.Kind.String()
		failureKind = outcome
		log.Warnf("transcription failed: %v", res.Failure)
	}
	s.cfg.Metrics.RecordTranscription(backend, outcome, res.Latency)
	logTranscription(backend, outcome, res, audioS)

	text := res.DisplayText()
	confidence := 0.0
	if res.Ok() {
		confidence = res.Confidence
	}
	cell := s.cfg.Pointer.Get()
	now := time.Now()

	s.emit(Transcript{Text: text, Confidence: confidence, Failed: !res.Ok(), Cell: cell, At: now})
	log.TranscriptionText(text, confidence)
	log.Confidence(confidence)

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	sinkName, err := s.cfg.Sinks.Save(ctx, sheet.Record{
		Time:       now,
		Text:       text,
		Confidence: confidence,
		Cell:       cell,
		Failed:     !res.Ok(),
	})
	cancel()
	if err != nil {
		log.Errorf("saving transcript for %s: %v", cell, err)
	}

	next := s.cfg.Pointer.Advance()
	s.emit(CellAdvanced{Cell: next})

	if s.cfg.Publisher == nil {
		return publish.TranscriptEvent{}, false
	}
	ev := publish.TranscriptEvent{
		Text:        text,
		Confidence:  confidence,
		Failed:      !res.Ok(),
		FailureKind: failureKind,
		Cell:        cell.String(),
		Sink:        sinkName,
		Backend:     backend,
		Timestamp:   now,
	}
	if s.cfg.Selection != nil {
		ev.Spreadsheet, ev.Sheet = s.cfg.Selection()
	}
	return ev, true
}

func logTranscription(backend, outcome string, res transcriber.Result, audioS float64) {
	t := log.Transcription{
		Backend:    backend,
		Outcome:    outcome,
		Confidence: res.Confidence,
		AudioS:     audioS,
		LatencyMs:  float64(res.Latency.Milliseconds()),
	}
	if m := res.Metrics; m != nil {
		t.DNSTimeMs = float64(m.DNS.Milliseconds())
		t.TLSTimeMs = float64(m.TLS.Milliseconds())
		t.TTFBMs = float64(m.TTFB.Milliseconds())
		t.TotalMs = float64(m.Total.Milliseconds())
		t.ConnReused = m.ConnReused
		t.TLSProto = m.TLSProtocol
	}
	log.TranscriptionMetrics(t)
}
