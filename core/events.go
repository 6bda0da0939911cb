package tutoring

import (
	"github.com/koscakluka/lingua-live/core/events"
)

// handleEvent applies one inbound event of the connection identified by
// generation. It reports false once the connection is no longer current, at
// which point the caller stops reading.
func (s *Session) handleEvent(generation uint64, event events.Event) bool {
	switch ev := event.(type) {
	case events.AudioChunk:
		return s.apply(generation, func() { s.playLocked(ev.Audio) })

	case events.InputTranscriptDelta:
		return s.apply(generation, func() { s.transcript.AppendInput(ev.Text) })

	case events.OutputTranscriptDelta:
		return s.apply(generation, func() {
			s.transcript.AppendOutput(ev.Text)
			s.state = StateSpeaking
		})

	case events.TurnComplete:
		return s.apply(generation, func() {
			s.transcript.CommitTurn()
			if s.state == StateSpeaking {
				s.state = s.restingStateLocked()
			}
		})

	case events.Interrupted:
		if !s.apply(generation, func() {
			s.scheduler.Interrupt()
			s.interruptions.Add(1)
			s.state = StateInterrupted
		}) {
			return false
		}
		return s.apply(generation, func() { s.state = s.restingStateLocked() })

	case events.Closed:
		s.apply(generation, func() {
			logger.Info("tutor ended the session", "session_id", s.id, "reason", ev.Reason)
			s.disconnectLocked(nil)
		})
		return false

	case events.Error:
		s.apply(generation, func() {
			logger.Warn("session lost", "session_id", s.id, "error", ev.Err)
			s.disconnectLocked(ev.Err)
		})
		return false

	default:
		logger.Debug("ignoring unknown event", "session_id", s.id, "kind", event.Kind())
		return true
	}
}

// apply runs change under the session lock if generation is still current and
// notifies the update callback afterwards.
func (s *Session) apply(generation uint64, change func()) bool {
	if !s.applyLocked(generation, change) {
		return false
	}
	s.notify()
	return true
}

func (s *Session) applyLocked(generation uint64, change func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return false
	}
	change()
	return true
}

func (s *Session) playLocked(pcm []byte) {
	if _, err := s.scheduler.Enqueue(pcm); err != nil {
		s.codecErrors.Add(1)
		logger.Warn("dropping tutor audio chunk", "session_id", s.id, "bytes", len(pcm), "error", err)
		return
	}
	s.chunksScheduled.Add(1)
}

// disconnectLocked ends a connection the remote side has ended. The
// transcript stays readable until the next Connect or Disconnect.
func (s *Session) disconnectLocked(cause error) {
	if err := s.teardownLocked(); err != nil {
		logger.Debug("teardown after remote close", "session_id", s.id, "error", err)
	}
	s.state = StateDisconnected
	s.lastErr = cause
}
