package audio

import (
	"sync"
	"time"
)

// FakeContext replays a WAV file as if it were a microphone. After the file
// is exhausted the capture keeps delivering silence until stopped.
type FakeContext struct {
	pcm      []byte
	realtime bool
}

func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	pcm, _, err := ReadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	return &FakeContext{pcm: pcm, realtime: realtime}, nil
}

// NewFakeContextPCM replays raw 16-bit PCM.
func NewFakeContextPCM(pcm []byte, realtime bool) *FakeContext {
	return &FakeContext{pcm: pcm, realtime: realtime}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, realtime: f.realtime, config: config, audioDone: make(chan struct{})}, nil
}

type FakeCapture struct {
	pcm      []byte
	realtime bool
	config   CaptureConfig

	mu        sync.Mutex
	cb        DataCallback
	audioDone chan struct{}
	stopCh    chan struct{}
	feedDone  chan struct{}
	starts    int
}

// AudioDone is closed once the whole file has been delivered by the current run.
func (f *FakeCapture) AudioDone() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.audioDone
}

// Starts reports how many times Start has been called.
func (f *FakeCapture) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) callback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	f.starts++
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	stop, feedDone, audioDone := f.stopCh, f.feedDone, f.audioDone
	f.mu.Unlock()

	chunk := f.config.FrameBytes()
	if chunk == 0 {
		chunk = FrameSize * BytesPerSample
	}
	interval := time.Millisecond
	if f.realtime {
		interval = f.config.FrameDuration()
	}

	go func() {
		defer close(feedDone)
		silence := make([]byte, chunk)
		pos := 0
		finished := false
		for {
			select {
			case <-stop:
				return
			default:
			}

			if cb := f.callback(); cb != nil {
				if pos < len(f.pcm) {
					end := min(pos+chunk, len(f.pcm))
					data := make([]byte, end-pos)
					copy(data, f.pcm[pos:end])
					cb(data, uint32(len(data)/BytesPerSample))
					pos = end
				} else {
					if !finished {
						finished = true
						close(audioDone)
					}
					cb(silence, uint32(len(silence)/BytesPerSample))
				}
			}

			select {
			case <-stop:
				return
			case <-time.After(interval):
			}
		}
	}()
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stop, feedDone := f.stopCh, f.feedDone
	f.mu.Unlock()
	if stop == nil {
		return
	}
	select {
	case <-stop:
		return
	default:
		close(stop)
	}
	<-feedDone

	f.mu.Lock()
	select {
	case <-f.audioDone:
		// replay from the start next time
		f.audioDone = make(chan struct{})
	default:
	}
	f.mu.Unlock()
}

func (f *FakeCapture) Close() { f.Stop() }
