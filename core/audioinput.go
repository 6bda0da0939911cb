package tutoring

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/koscakluka/lingua-live/core/audio"
)

const DefaultFrameSize = 4096

// CaptureStream is the handle of the active microphone stream.
type CaptureStream struct {
	ID        string
	StartedAt time.Time

	frames atomic.Int64
	active atomic.Bool
}

// Frames is the number of full frames handed to the transport so far.
func (s *CaptureStream) Frames() int64 { return s.frames.Load() }

func (s *CaptureStream) Active() bool { return s.active.Load() }

// capturePipeline owns at most one capture stream. Device buffers are cut into
// fixed frames, encoded and handed to a sink that must not block.
type capturePipeline struct {
	mu sync.Mutex

	// device is the configured microphone; nil when there is none.
	device    AudioInput
	frameSize int

	stream *CaptureStream
	framer *framer
}

func newCapturePipeline(device AudioInput, frameSize int) *capturePipeline {
	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}
	return &capturePipeline{device: device, frameSize: frameSize}
}

func (p *capturePipeline) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream != nil
}

// Start acquires the microphone. Starting while a stream is active returns
// that stream. Device failures are classified as [audio.ErrPermissionDenied]
// or [audio.ErrDeviceUnavailable] and leave no stream behind. A device that
// does not record at [audio.CaptureSampleRate] is unavailable.
func (p *capturePipeline) Start(ctx context.Context, sink func(pcm []byte) bool) (*CaptureStream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream != nil {
		return p.stream, nil
	}
	if p.device == nil {
		return nil, fmt.Errorf("start capture: %w", audio.ErrDeviceUnavailable)
	}
	encoding := p.device.EncodingInfo()
	if encoding.IsZero() {
		encoding = audio.GetDefaultEncodingInfo()
	}
	if encoding.SampleRate != audio.CaptureSampleRate {
		return nil, fmt.Errorf("start capture: device records at %d Hz, need %d Hz: %w",
			encoding.SampleRate, audio.CaptureSampleRate, audio.ErrDeviceUnavailable)
	}

	_, span := tracer.Start(ctx, "tutoring.capture.start")
	defer span.End()

	stream := &CaptureStream{ID: uuid.NewString(), StartedAt: time.Now()}
	stream.active.Store(true)
	framer := newFramer(p.frameSize, func(frame []float32) {
		pcm := audio.EncodeLinear16(frame)
		stream.frames.Add(1)
		captureFramesCounter.Add(context.Background(), 1)
		sink(pcm)
	})

	if err := p.device.StartCapture(ctx, func(samples []float32) {
		if stream.active.Load() {
			framer.Write(samples)
		}
	}); err != nil {
		stream.active.Store(false)
		recordedErr := audio.DeviceError("start capture", err)
		span.RecordError(recordedErr)
		return nil, recordedErr
	}

	p.stream = stream
	p.framer = framer
	logger.Debug("capture started", "stream_id", stream.ID, "frame_size", p.frameSize, "format", encoding.Format.Name())
	return stream, nil
}

// Stop releases the microphone. Stopping with no active stream is a no-op.
// Samples short of a full frame are discarded.
func (p *capturePipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return nil
	}

	stream := p.stream
	stream.active.Store(false)
	p.stream = nil
	p.framer.Reset()
	p.framer = nil

	if err := p.device.StopCapture(); err != nil {
		return fmt.Errorf("failed to stop capture: %w", err)
	}
	logger.Debug("capture stopped", "stream_id", stream.ID, "frames", stream.Frames())
	return nil
}

func (p *capturePipeline) Close() error {
	err := p.Stop()
	if p.device != nil {
		p.device.Close()
	}
	return err
}

// framer re-slices arbitrary device buffers into frames of a fixed size.
type framer struct {
	mu      sync.Mutex
	size    int
	pending []float32
	emit    func(frame []float32)
}

func newFramer(size int, emit func(frame []float32)) *framer {
	return &framer{size: size, pending: make([]float32, 0, size), emit: emit}
}

func (f *framer) Write(samples []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(samples) > 0 {
		n := min(f.size-len(f.pending), len(samples))
		f.pending = append(f.pending, samples[:n]...)
		samples = samples[n:]
		if len(f.pending) == f.size {
			f.emit(f.pending)
			f.pending = f.pending[:0]
		}
	}
}

func (f *framer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = f.pending[:0]
}
