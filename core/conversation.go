package tutoring

import (
	"time"

	"github.com/koscakluka/lingua-live/core/conversations"
)

// Counters are running totals since the session was created.
type Counters struct {
	FramesCaptured  int64
	FramesSent      int64
	FramesDropped   int64
	ChunksScheduled int64
	CodecErrors     int64
	Interruptions   int64
}

// Snapshot is everything a display needs to render the session.
type Snapshot struct {
	SessionID string
	State     State
	Status    string
	Profile   LanguageProfile

	Messages     []conversations.Message
	UserPartial  string
	TutorPartial string

	MicrophoneOn bool
	// BufferedAudio is tutor speech scheduled but not yet played.
	BufferedAudio time.Duration
	// Err is the last user-visible error, nil when there is none.
	Err error

	Counters Counters
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sent, dropped := s.sent, s.dropped
	if s.transport != nil {
		stats := s.transport.Stats()
		sent += stats.SentFrames
		dropped += stats.DroppedFrames
	}

	return Snapshot{
		SessionID:     s.id,
		State:         s.state,
		Status:        s.state.Status(),
		Profile:       s.profile,
		Messages:      s.transcript.Messages(),
		UserPartial:   s.transcript.Partial(conversations.SpeakerUser),
		TutorPartial:  s.transcript.Partial(conversations.SpeakerTutor),
		MicrophoneOn:  s.capture.Active(),
		BufferedAudio: s.scheduler.Buffered(),
		Err:           s.lastErr,
		Counters: Counters{
			FramesCaptured:  s.framesCaptured.Load(),
			FramesSent:      sent,
			FramesDropped:   dropped,
			ChunksScheduled: s.chunksScheduled.Load(),
			CodecErrors:     s.codecErrors.Load(),
			Interruptions:   s.interruptions.Load(),
		},
	}
}

// Transcript is a read-only view of the current conversation.
func (s *Session) Transcript() conversations.View { return s.transcript }
