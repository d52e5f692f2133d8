package main

import (
	"errors"
	"slices"
	"sync"
	"time"

	"voxsheet/audio"
	"voxsheet/log"
)

const hotplugInterval = 3 * time.Second

var errDeviceBusy = errors.New("cannot switch microphone while recording")

// mic owns the capture device and hands the session one stream per
// recording. The device can be swapped between recordings.
type mic struct {
	ctx audio.Context
	cfg audio.CaptureConfig

	mu        sync.Mutex
	dev       audio.CaptureDevice
	info      *audio.DeviceInfo
	preferred string
	inUse     bool
}

func newMic(ctx audio.Context, cfg audio.CaptureConfig, info *audio.DeviceInfo) (*mic, error) {
	dev, err := ctx.NewCapture(info, cfg)
	if err != nil {
		return nil, err
	}
	m := &mic{ctx: ctx, cfg: cfg, dev: dev, info: info}
	if info != nil {
		m.preferred = info.Name
	}
	return m, nil
}

// Open satisfies audio.Opener.
func (m *mic) Open() (audio.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.Info("recording_device: " + m.dev.DeviceName())
	s, err := audio.OpenStream(m.dev, m.cfg)
	if err != nil {
		return nil, err
	}
	m.inUse = true
	return &micStream{Stream: s, release: m.release}, nil
}

func (m *mic) release() {
	m.mu.Lock()
	m.inUse = false
	m.mu.Unlock()
}

func (m *mic) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.info == nil {
		return "system default"
	}
	return m.info.Name
}

// Line is the device line shown by the front ends.
func (m *mic) Line() string {
	name := m.Name()
	if audio.IsBluetooth(name) {
		name += " (BT!)"
	}
	return "마이크: " + name
}

func (m *mic) Devices() ([]string, error) {
	devices, err := m.ctx.Devices()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(devices))
	for i := range devices {
		names[i] = devices[i].Name
	}
	return names, nil
}

// SwitchTo reopens the capture device by name. An empty name selects the
// system default.
func (m *mic) SwitchTo(name string) error {
	var info *audio.DeviceInfo
	if name != "" {
		found, err := audio.FindDevice(m.ctx, name)
		if err != nil {
			return err
		}
		if found == nil {
			log.Warnf("device not found: %s", name)
			return errors.New("device not found: " + name)
		}
		info = found
	}
	if err := m.apply(info); err != nil {
		return err
	}
	m.mu.Lock()
	m.preferred = name
	m.mu.Unlock()
	return nil
}

func (m *mic) apply(info *audio.DeviceInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inUse {
		return errDeviceBusy
	}
	name := "system default"
	if info != nil {
		name = info.Name
	}
	log.Info("device_switch: " + name)
	dev, err := m.ctx.NewCapture(info, m.cfg)
	if err != nil {
		log.Errorf("capture device reinit error: %v", err)
		return err
	}
	m.dev.Close()
	m.dev = dev
	m.info = info
	return nil
}

// watch polls for device changes. When the selected device disappears the
// system default is used until it comes back.
func (m *mic) watch(onChange func(line string)) {
	var last []string
	ticker := time.NewTicker(hotplugInterval)
	defer ticker.Stop()
	for range ticker.C {
		names, err := m.Devices()
		if err != nil || slices.Equal(last, names) {
			continue
		}
		last = names

		m.mu.Lock()
		selected, preferred := "", m.preferred
		if m.info != nil {
			selected = m.info.Name
		}
		m.mu.Unlock()

		switch {
		case selected != "" && !slices.Contains(names, selected):
			log.Info("device_disconnected: " + selected)
			if m.apply(nil) != nil {
				continue
			}
		case selected == "" && preferred != "" && slices.Contains(names, preferred):
			log.Info("device_reconnected: " + preferred)
			found, err := audio.FindDevice(m.ctx, preferred)
			if err != nil || found == nil || m.apply(found) != nil {
				continue
			}
		default:
			continue
		}
		if onChange != nil {
			onChange(m.Line())
		}
	}
}

func (m *mic) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dev.Close()
}

type micStream struct {
	audio.Stream
	release func()
	once    sync.Once
}

func (s *micStream) Close() {
	s.Stream.Close()
	s.once.Do(s.release)
}
