package audio

import (
	"encoding/binary"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV writes pcm as a canonical PCM WAV file at path.
func WriteWAV(path string, pcm []byte, cfg CaptureConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	enc := wav.NewEncoder(f, int(cfg.SampleRate), BitsPerSample, int(cfg.Channels), 1)
	samples := make([]int, len(pcm)/BytesPerSample)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*BytesPerSample:])))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: int(cfg.Channels), SampleRate: int(cfg.SampleRate)},
		Data:           samples,
		SourceBitDepth: BitsPerSample,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("wav write: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("wav close: %w", err)
	}
	return f.Close()
}

// EncodeWAV packages pcm as WAV bytes. The encoder needs a seekable writer
// to patch the header sizes, so the file goes through a temp file.
func EncodeWAV(pcm []byte, cfg CaptureConfig) ([]byte, error) {
	tmp, err := os.CreateTemp("", "voxsheet-*.wav")
	if err != nil {
		return nil, fmt.Errorf("temp wav: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := WriteWAV(path, pcm, cfg); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// ReadWAV decodes a PCM WAV file into 16-bit little-endian bytes and
// returns the stream's sample rate and channel count.
func ReadWAV(path string) ([]byte, CaptureConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, CaptureConfig{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, CaptureConfig{}, fmt.Errorf("%s: not a valid wav file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, CaptureConfig{}, fmt.Errorf("decode wav: %w", err)
	}
	if dec.BitDepth != BitsPerSample {
		return nil, CaptureConfig{}, fmt.Errorf("%s: %d-bit wav, want %d-bit", path, dec.BitDepth, BitsPerSample)
	}

	pcm := make([]byte, len(buf.Data)*BytesPerSample)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*BytesPerSample:], uint16(int16(s)))
	}
	cfg := DefaultCaptureConfig()
	cfg.SampleRate = dec.SampleRate
	cfg.Channels = uint32(dec.NumChans)
	return pcm, cfg, nil
}
