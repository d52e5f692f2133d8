// Package beep plays the short cues for recording start, recording end
// and failures.
package beep

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

var disabled atomic.Bool

// Disable silences every cue, e.g. in headless test mode.
func Disable() { disabled.Store(true) }

const (
	sampleRate = 44100

	// Start beep: high pitch, short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// End beep: medium pitch, slightly longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// Error beep: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)


// cue is one mono sound: a decaying sine, played once or twice.
type cue struct {
	freq     float64
	duration float64 // seconds per beep
	gap      float64 // silence between beeps, 0 for a single beep
	volume   float64
	decay    float64
}

var (
	startCue = cue{freq: startFreq, duration: 0.2, volume: startVolume, decay: startDecay}
	endCue   = cue{freq: endFreq, duration: 0.2, volume: endVolume, decay: endDecay}
	errorCue = cue{freq: errorFreq, duration: 0.08, gap: 0.05, volume: errorVolume, decay: errorDecay}
)

// samples renders the cue at sampleRate.
func (c cue) samples() []int16 {
	n := int(sampleRate * c.duration)
	tick := make([]int16, n)
	for i := range tick {
		t := float64(i) / sampleRate
		envelope := math.Exp(-t * c.decay)
		tick[i] = int16(math.Sin(2*math.Pi*c.freq*t) * 32767 * c.volume * envelope)
	}
	if c.gap <= 0 {
		return tick
	}
	out := make([]int16, 0, 2*n+int(sampleRate*c.gap))
	out = append(out, tick...)
	out = append(out, make([]int16, int(sampleRate*c.gap))...)
	return append(out, tick...)
}

// stereo duplicates each sample into interleaved left/right.
func stereo(mono []int16) []int16 {
	out := make([]int16, len(mono)*2)
	for i, s := range mono {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}

// pcmBytes encodes samples as signed 16-bit little-endian.
func pcmBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
