package miniaudio

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/koscakluka/lingua-live/core/audio"
	"github.com/koscakluka/lingua-live/core/playback"
)

// playbackClient renders scheduled voices on a float32 mono device. The
// number of frames handed to the device is the output clock.
type playbackClient struct {
	device *malgo.Device

	frames atomic.Int64

	mu       sync.Mutex
	voicesMu sync.Mutex
	voices   []*voice
	mix      []float32
}

type voice struct {
	client  *playbackClient
	samples []float32
	startAt int64
	endAt   int64
	onEnded func()
}

func (c *playbackClient) Init(audioContext *malgo.AllocatedContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sampleRate := uint32(audio.PlaybackSampleRate)
	format := malgo.FormatF32

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = sampleRate
	config.Playback.Format = format
	config.Playback.Channels = 1
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = sampleRate / 50 // 20ms
	config.Periods = 3

	var err error
	if c.device, err = malgo.InitDevice(audioContext.Context, config, malgo.DeviceCallbacks{
		Data: c.render,
	}); err != nil {
		return audio.DeviceError("initialize playback device", err)
	}
	return nil
}

func (c *playbackClient) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	return nil
}

func (c *playbackClient) Uninit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}

	c.device.Uninit()
	c.device = nil

	c.voicesMu.Lock()
	c.voices = nil
	c.voicesMu.Unlock()
	return nil
}

func (c *playbackClient) Now() int64 { return c.frames.Load() }

func (c *playbackClient) SampleRate() int { return audio.PlaybackSampleRate }

func (c *playbackClient) Schedule(buf audio.Buffer, startAt int64, onEnded func()) (playback.Voice, error) {
	if buf.SampleRate != audio.PlaybackSampleRate {
		return nil, errors.New("sample rate does not match output")
	}
	if onEnded == nil {
		onEnded = func() {}
	}

	v := &voice{
		client:  c,
		samples: buf.Samples,
		startAt: startAt,
		endAt:   startAt + buf.Frames(),
		onEnded: onEnded,
	}

	c.voicesMu.Lock()
	defer c.voicesMu.Unlock()
	c.voices = append(c.voices, v)
	return v, nil
}

func (v *voice) Stop() {
	c := v.client
	c.voicesMu.Lock()
	defer c.voicesMu.Unlock()
	if i := slices.Index(c.voices, v); i >= 0 {
		c.voices = slices.Delete(c.voices, i, i+1)
	}
}

func (c *playbackClient) render(pOutput, _ []byte, frameCount uint32) {
	start := c.frames.Load()
	end := start + int64(frameCount)

	c.voicesMu.Lock()
	if cap(c.mix) < int(frameCount) {
		c.mix = make([]float32, frameCount)
	}
	mix := c.mix[:frameCount]
	clear(mix)

	var finished []*voice
	remaining := c.voices[:0]
	for _, v := range c.voices {
		if v.startAt < end {
			from, to := max(v.startAt, start), min(v.endAt, end)
			for f := from; f < to; f++ {
				mix[f-start] += v.samples[f-v.startAt]
			}
		}
		if v.endAt <= end {
			finished = append(finished, v)
			continue
		}
		remaining = append(remaining, v)
	}
	clear(c.voices[len(remaining):])
	c.voices = remaining

	putFloat32(pOutput, mix)
	c.voicesMu.Unlock()

	c.frames.Store(end)

	if len(finished) > 0 {
		go func() {
			for _, v := range finished {
				v.onEnded()
			}
		}()
	}
}
