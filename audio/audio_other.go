//go:build !linux

package audio

import (
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("malgo: %w", err)
	}
	return &malgoContext{ctx: ctx}, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	result := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		result = append(result, DeviceInfo{
			ID:   hex.EncodeToString(d.ID[:]),
			Name: d.Name(),
		})
	}
	return result, nil
}

func (m *malgoContext) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = config.Channels
	deviceConfig.SampleRate = config.SampleRate
	deviceConfig.PeriodSizeInFrames = config.FrameSize

	if device != nil {
		idBytes, err := hex.DecodeString(device.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid device ID: %w", err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		deviceConfig.Capture.DeviceID = devID.Pointer()
	}

	c := &malgoCapture{ctx: m.ctx, config: deviceConfig, device: device}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoCapture struct {
	ctx      *malgo.AllocatedContext
	config   malgo.DeviceConfig
	device   *DeviceInfo
	callback atomic.Pointer[DataCallback]

	mu  sync.Mutex
	dev *malgo.Device
}

func (c *malgoCapture) init() error {
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			cb := c.callback.Load()
			if cb == nil || len(input) == 0 {
				return
			}
			// malgo reuses the input buffer after the callback returns.
			data := make([]byte, len(input))
			copy(data, input)
			(*cb)(data, frameCount)
		},
	}
	dev, err := malgo.InitDevice(c.ctx.Context, c.config, callbacks)
	if err != nil {
		return fmt.Errorf("malgo init device: %w", err)
	}
	c.dev = dev
	return nil
}

func (c *malgoCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dev.Start(); err != nil {
		// Device may be stale after sleep/wake or a route change.
		c.dev.Uninit()
		if err := c.init(); err != nil {
			return err
		}
		return c.dev.Start()
	}
	return nil
}

func (c *malgoCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dev.IsStarted() {
		c.dev.Stop()
	}
}

func (c *malgoCapture) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dev.Uninit()
}

func (c *malgoCapture) SetCallback(cb DataCallback) {
	c.callback.Store(&cb)
}

func (c *malgoCapture) ClearCallback() {
	c.callback.Store(nil)
}

func (c *malgoCapture) DeviceName() string {
	if c.device != nil {
		return c.device.Name
	}
	return "system default"
}
