package audio

import (
	"strings"
	"time"
)

const WAVHeaderSize = 44

const (
	SampleRate     = 16000
	Channels       = 1
	BitsPerSample  = 16
	BytesPerSample = BitsPerSample / 8
	FrameSize      = 1024
	MaxDuration    = 15 * time.Second
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type DataCallback func(data []byte, frameCount uint32)

// CaptureConfig describes the PCM stream every backend produces:
// signed 16-bit little-endian samples, interleaved when Channels > 1.
type CaptureConfig struct {
	SampleRate  uint32
	Channels    uint32
	FrameSize   uint32 // samples per frame handed to the recorder
	MaxDuration time.Duration
}

func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:  SampleRate,
		Channels:    Channels,
		FrameSize:   FrameSize,
		MaxDuration: MaxDuration,
	}
}

func (c CaptureConfig) FrameBytes() int {
	return int(c.FrameSize) * int(c.Channels) * BytesPerSample
}

func (c CaptureConfig) FrameDuration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.FrameSize) * time.Second / time.Duration(c.SampleRate)
}

// MaxFrames is the frame budget of one recording. It is computed as
// rate/frameSize*seconds in floating point and truncated, so 16 kHz with
// 1024-sample frames over 15 s gives 234 frames (about 14.98 s).
func (c CaptureConfig) MaxFrames() int {
	if c.FrameSize == 0 {
		return 0
	}
	return int(float64(c.SampleRate) / float64(c.FrameSize) * c.MaxDuration.Seconds())
}

// Seconds converts a PCM byte count to audio duration.
func (c CaptureConfig) Seconds(pcmBytes int) float64 {
	perSecond := int(c.SampleRate) * int(c.Channels) * BytesPerSample
	if perSecond == 0 {
		return 0
	}
	return float64(pcmBytes) / float64(perSecond)
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}
