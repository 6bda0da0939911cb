package tutoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/koscakluka/lingua-live/core/audio"
	"github.com/koscakluka/lingua-live/core/conversations"
	"github.com/koscakluka/lingua-live/core/playback"
	"github.com/koscakluka/lingua-live/core/transport"
)

var (
	ErrNotConnected = errors.New("session is not connected")
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoDialer     = errors.New("no dialer configured")
)

// LanguageProfile is the language the learner practices in a session.
type LanguageProfile struct {
	// Name is the short key the profile is selected by, e.g. "fr".
	Name         string
	DisplayName  string
	LanguageName string
	VoiceName    string
	LanguageCode string
}

// Session is a live tutoring session. It owns the connection state machine,
// the microphone, tutor playback and the transcript of the current
// conversation. A Session can connect and disconnect any number of times.
//
// Lock order is the session lock, then the playback scheduler, then the audio
// output. Device callbacks never take the session lock.
type Session struct {
	id string

	mu         sync.Mutex
	state      State
	lastErr    error
	generation uint64
	profile    LanguageProfile
	transport  *transport.Session

	// uplink is the open transport captured audio is sent to, nil otherwise.
	uplink atomic.Pointer[transport.Session]

	dialer           transport.Dialer
	transportOptions []transport.SessionOption
	model            string
	instructions     func(LanguageProfile) (string, error)

	audioInput AudioInput
	frameSize  int
	capture    *capturePipeline

	output     playback.Output
	scheduler  *playback.Scheduler
	transcript *conversations.Transcript

	emitter *updateEmitter

	closeOnce sync.Once

	framesCaptured  atomic.Int64
	chunksScheduled atomic.Int64
	codecErrors     atomic.Int64
	interruptions   atomic.Int64
	// sent and dropped carry the totals of transports already closed.
	sent    int64
	dropped int64
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		id:           uuid.NewString(),
		state:        StateDisconnected,
		dialer:       transport.DialerFunc(noDialer),
		instructions: defaultInstructions,
		frameSize:    DefaultFrameSize,
		transcript:   conversations.NewTranscript(),
		emitter:      newUpdateEmitter(nil),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.output == nil {
		s.output = playback.NewVirtualOutput(audio.PlaybackSampleRate)
	}
	s.scheduler = playback.NewScheduler(s.output)
	s.capture = newCapturePipeline(s.audioInput, s.frameSize)

	return s
}

func noDialer(context.Context, transport.Setup) (transport.Conn, error) {
	return nil, ErrNoDialer
}

func defaultInstructions(profile LanguageProfile) (string, error) {
	language := profile.LanguageName
	if language == "" {
		language = profile.DisplayName
	}
	return fmt.Sprintf("You are a friendly %s tutor. Speak only %s, keep answers short and "+
		"gently correct the learner's mistakes.", language, language), nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close disconnects and releases the audio devices. The session cannot be
// used afterwards.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.Disconnect()
		if closeErr := s.capture.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close audio input: %w", closeErr))
		}
	})
	return err
}

func (s *Session) notify() {
	s.emitter.emit(s.Snapshot)
}

// restingStateLocked is the state a connected session settles into when
// nothing is being spoken.
func (s *Session) restingStateLocked() State {
	if s.capture.Active() {
		return StateListening
	}
	return StateConnectedIdle
}

// teardownLocked releases the microphone, the transport and pending playback
// of the current connection. Events still in flight from it are ignored
// afterwards.
func (s *Session) teardownLocked() error {
	s.generation++
	s.uplink.Store(nil)

	var errs []error
	if err := s.capture.Stop(); err != nil {
		errs = append(errs, err)
	}
	if s.transport != nil {
		stats := s.transport.Stats()
		s.sent += stats.SentFrames
		s.dropped += stats.DroppedFrames
		if err := s.transport.Close(); err != nil {
			errs = append(errs, err)
		}
		s.transport = nil
	}
	s.scheduler.Reset()

	return errors.Join(errs...)
}
