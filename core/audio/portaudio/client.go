package portaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/koscakluka/lingua-live/core/audio"
)

// Client is a microphone on the default PortAudio input device. The device
// is only opened while capturing.
type Client struct {
	framesPerBuffer int

	mu     sync.Mutex
	stream *portaudio.Stream
	closed bool
}

func NewClient(framesPerBuffer int) (*Client, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, audio.DeviceError("initialize portaudio", err)
	}
	return &Client{framesPerBuffer: framesPerBuffer}, nil
}

// StartCapture opens the default input at the capture rate and delivers
// each device buffer to onSamples. The slice is only valid during the call.
func (c *Client) StartCapture(_ context.Context, onSamples func(samples []float32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("start capture: %w", audio.ErrDeviceUnavailable)
	} else if c.stream != nil {
		return nil
	}

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return audio.DeviceError("find default input", err)
	} else if device == nil || device.MaxInputChannels < 1 {
		return fmt.Errorf("find default input: %w", audio.ErrDeviceUnavailable)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(audio.CaptureSampleRate), c.framesPerBuffer,
		func(in []float32) { onSamples(in) })
	if err != nil {
		return audio.DeviceError("open input stream", err)
	}

	if err := stream.Start(); err != nil {
		return audio.DeviceError("start input stream", errors.Join(err, stream.Close()))
	}

	c.stream = stream
	return nil
}

func (c *Client) StopCapture() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil
	}

	stream := c.stream
	c.stream = nil
	if err := errors.Join(stream.Stop(), stream.Close()); err != nil {
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	return nil
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.CaptureSampleRate,
		Format:     audio.EncodingFloat32,
	}
}

func (c *Client) Close() {
	_ = c.StopCapture()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		_ = portaudio.Terminate()
	}
}
