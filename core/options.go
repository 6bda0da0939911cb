package tutoring

import (
	"context"

	"github.com/koscakluka/lingua-live/core/audio"
	"github.com/koscakluka/lingua-live/core/playback"
	"github.com/koscakluka/lingua-live/core/transport"
)

type SessionOption func(*Session)

// AudioInput is a microphone. StartCapture delivers device buffers of any
// length to onSamples from the device's own thread; onSamples never blocks.
type AudioInput interface {
	StartCapture(ctx context.Context, onSamples func(samples []float32)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
	Close()
}

// WithDialer sets the provider used to open each connection.
func WithDialer(dialer transport.Dialer) SessionOption {
	return func(s *Session) {
		if dialer != nil {
			s.dialer = dialer
		}
	}
}

func WithTransportOptions(opts ...transport.SessionOption) SessionOption {
	return func(s *Session) { s.transportOptions = append(s.transportOptions, opts...) }
}

// WithAudioInput sets the microphone. Without one, enabling the microphone
// fails with [audio.ErrDeviceUnavailable].
func WithAudioInput(input AudioInput) SessionOption {
	return func(s *Session) { s.audioInput = input }
}

// WithAudioOutput sets the device tutor speech is scheduled on. The default is
// a [playback.VirtualOutput] that nothing advances.
func WithAudioOutput(output playback.Output) SessionOption {
	return func(s *Session) {
		if output != nil {
			s.output = output
		}
	}
}

// WithFrameSize sets the number of samples per outbound frame.
func WithFrameSize(samples int) SessionOption {
	return func(s *Session) { s.frameSize = samples }
}

// WithModel names the live model; empty leaves the choice to the dialer.
func WithModel(model string) SessionOption {
	return func(s *Session) { s.model = model }
}

// WithInstructions sets how the tutor's system instructions are derived from
// the chosen language.
func WithInstructions(build func(profile LanguageProfile) (string, error)) SessionOption {
	return func(s *Session) {
		if build != nil {
			s.instructions = build
		}
	}
}

// WithUpdateCallback registers a callback invoked with a fresh snapshot after
// every change. Calls are serialized. The callback must not call back into
// the session synchronously.
func WithUpdateCallback(callback func(Snapshot)) SessionOption {
	return func(s *Session) { s.emitter = newUpdateEmitter(callback) }
}
