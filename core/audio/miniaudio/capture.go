package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/koscakluka/lingua-live/core/audio"
)

type captureClient struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device

	samples []float32

	mu sync.Mutex
}

// Start acquires the default capture device. Calling it while capturing is a
// no-op.
func (c *captureClient) Start(onSamples func(samples []float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.audioContext == nil {
		return fmt.Errorf("start capture: %w", audio.ErrDeviceUnavailable)
	} else if c.device != nil {
		return nil
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = audio.CaptureSampleRate
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = 1
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = 480
	config.Periods = 3

	device, err := malgo.InitDevice(c.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount)
			if n == 0 || len(pInput) < n*4 {
				return
			}
			if cap(c.samples) < n {
				c.samples = make([]float32, n)
			}
			samples := c.samples[:n]
			readFloat32(samples, pInput)
			onSamples(samples)
		},
	})
	if err != nil {
		return audio.DeviceError("initialize capture device", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return audio.DeviceError("start capture device", err)
	}

	c.device = device
	return nil
}

// Stop releases the capture device. Calling it while stopped is a no-op.
func (c *captureClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return nil
	}

	device := c.device
	c.device = nil
	err := device.Stop()
	device.Uninit()
	if err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	return nil
}
