package audio

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrReadTimeout  = errors.New("audio: no frame within read timeout")
	ErrStreamClosed = errors.New("audio: stream closed")
)

// DefaultReadTimeout bounds a single ReadFrame call.
const DefaultReadTimeout = time.Second

// Stream is a blocking source of fixed-size PCM frames.
type Stream interface {
	ReadFrame() ([]byte, error)
	Close()
}

// Opener starts a new capture stream for one recording.
type Opener func() (Stream, error)

// captureStream re-chunks the callback-driven output of a CaptureDevice
// into frames of exactly cfg.FrameBytes() bytes.
type captureStream struct {
	dev         CaptureDevice
	frameBytes  int
	readTimeout time.Duration
	frames      chan []byte

	mu      sync.Mutex
	pending []byte
	closed  bool
	once    sync.Once
}

// OpenStream installs a callback on dev, starts it and returns a Stream
// over its output. Closing the stream stops the device but does not close it,
// so the device can be reused by the next recording.
func OpenStream(dev CaptureDevice, cfg CaptureConfig) (Stream, error) {
	s := &captureStream{
		dev:         dev,
		frameBytes:  cfg.FrameBytes(),
		readTimeout: DefaultReadTimeout,
		// Room for the whole recording so a slow reader never stalls the device.
		frames: make(chan []byte, cfg.MaxFrames()+1),
	}
	dev.SetCallback(s.feed)
	if err := dev.Start(); err != nil {
		dev.ClearCallback()
		return nil, err
	}
	return s, nil
}

func (s *captureStream) feed(data []byte, _ uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = append(s.pending, data...)
	for len(s.pending) >= s.frameBytes {
		frame := make([]byte, s.frameBytes)
		copy(frame, s.pending[:s.frameBytes])
		s.pending = s.pending[s.frameBytes:]
		select {
		case s.frames <- frame:
		default:
			// reader has fallen a full recording behind; drop
		}
	}
}

func (s *captureStream) ReadFrame() ([]byte, error) {
	timer := time.NewTimer(s.readTimeout)
	defer timer.Stop()
	select {
	case frame, ok := <-s.frames:
		if !ok {
			return nil, ErrStreamClosed
		}
		return frame, nil
	case <-timer.C:
		return nil, ErrReadTimeout
	}
}

func (s *captureStream) Close() {
	s.once.Do(func() {
		s.dev.Stop()
		s.dev.ClearCallback()
		s.mu.Lock()
		s.closed = true
		s.pending = nil
		close(s.frames)
		s.mu.Unlock()
	})
}
