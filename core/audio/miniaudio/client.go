package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/koscakluka/lingua-live/core/audio"
	"github.com/koscakluka/lingua-live/core/playback"
)

var _ playback.Output = (*Client)(nil)

// Client owns a miniaudio context with one playback device, which is started
// immediately and provides the output clock, and one capture device, which is
// only acquired while capturing.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient

	closeOnce sync.Once
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", "message", message)
	})
	if err != nil {
		return nil, audio.DeviceError("initialize miniaudio context", err)
	}

	client := Client{audioContext: audioCtx}

	if err := client.playbackClient.Init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback client: %w", err)
	}
	if err := client.playbackClient.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	client.captureClient.audioContext = audioCtx
	return &client, nil
}

func (c *Client) StartCapture(_ context.Context, onSamples func(samples []float32)) error {
	return c.captureClient.Start(onSamples)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.CaptureSampleRate,
		Format:     audio.EncodingFloat32,
	}
}

// Close releases both devices and the context. It is safe to call more than
// once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		_ = c.captureClient.Stop()
		_ = c.playbackClient.Uninit()
		if c.audioContext != nil {
			_ = c.audioContext.Uninit()
			c.audioContext.Free()
			c.audioContext = nil
		}
	})
}
