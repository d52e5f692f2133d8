package encoder

import "voxsheet/audio"

const (
	SampleRate    = audio.SampleRate
	Channels      = audio.Channels
	BitsPerSample = audio.BitsPerSample
	BlockSize     = 4096
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}
