package playback

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/koscakluka/lingua-live/core/audio"
)

var _ Output = (*VirtualOutput)(nil)

// VirtualOutput is an [Output] without a device. Its clock only moves when
// [VirtualOutput.Advance] is called, or in real time under
// [VirtualOutput.Run]. It is used for headless sessions and tests.
type VirtualOutput struct {
	mu sync.Mutex

	sampleRate int
	now        int64
	voices     []*virtualVoice
}

type virtualVoice struct {
	output  *VirtualOutput
	startAt int64
	endAt   int64
	onEnded func()
}

// Span is the frame range [StartAt, EndAt) a voice occupies.
type Span struct {
	StartAt int64
	EndAt   int64
}

func NewVirtualOutput(sampleRate int) *VirtualOutput {
	if sampleRate <= 0 {
		sampleRate = audio.PlaybackSampleRate
	}
	return &VirtualOutput{sampleRate: sampleRate}
}

func (o *VirtualOutput) SampleRate() int { return o.sampleRate }

func (o *VirtualOutput) Now() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.now
}

func (o *VirtualOutput) Schedule(buf audio.Buffer, startAt int64, onEnded func()) (Voice, error) {
	if buf.SampleRate != o.sampleRate {
		return nil, errors.New("sample rate does not match output")
	}
	if onEnded == nil {
		onEnded = func() {}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	voice := &virtualVoice{output: o, startAt: startAt, endAt: startAt + buf.Frames(), onEnded: onEnded}
	o.voices = append(o.voices, voice)
	return voice, nil
}

// Advance moves the clock forward and finishes every voice whose last frame
// has been passed, in end order.
func (o *VirtualOutput) Advance(frames int64) {
	if frames <= 0 {
		return
	}

	o.mu.Lock()
	o.now += frames
	var finished []*virtualVoice
	remaining := o.voices[:0]
	for _, voice := range o.voices {
		if voice.endAt <= o.now {
			finished = append(finished, voice)
			continue
		}
		remaining = append(remaining, voice)
	}
	o.voices = remaining
	o.mu.Unlock()

	slices.SortStableFunc(finished, func(a, b *virtualVoice) int {
		return int(a.endAt - b.endAt)
	})
	for _, voice := range finished {
		voice.onEnded()
	}
}

// Run advances the clock in real time until ctx is done.
func (o *VirtualOutput) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	started := time.Now()
	var advanced int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			target := int64(time.Since(started) * time.Duration(o.sampleRate) / time.Second)
			o.Advance(target - advanced)
			advanced = target
		}
	}
}

// Spans lists the voices that are still scheduled, by start frame.
func (o *VirtualOutput) Spans() []Span {
	o.mu.Lock()
	defer o.mu.Unlock()

	spans := make([]Span, 0, len(o.voices))
	for _, voice := range o.voices {
		spans = append(spans, Span{StartAt: voice.startAt, EndAt: voice.endAt})
	}
	slices.SortFunc(spans, func(a, b Span) int { return int(a.StartAt - b.StartAt) })
	return spans
}

func (v *virtualVoice) Stop() {
	o := v.output
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, voice := range o.voices {
		if voice == v {
			o.voices = slices.Delete(o.voices, i, i+1)
			return
		}
	}
}
