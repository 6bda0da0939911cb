package tutoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/koscakluka/lingua-live/core/conversations"
	"github.com/koscakluka/lingua-live/core/events"
	"github.com/koscakluka/lingua-live/core/transport"
)

// Connect starts a conversation in the given language. Dialing happens in the
// background; progress is reported through the update callback and
// [Session.Snapshot]. Calling Connect while connecting or connected does
// nothing.
func (s *Session) Connect(ctx context.Context, profile LanguageProfile) error {
	s.mu.Lock()
	if !s.state.CanConnect() {
		s.mu.Unlock()
		return nil
	}

	instructions, err := s.instructions(profile)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to build system instructions: %w", err)
	}

	s.transcript.Reset()
	s.scheduler.Reset()
	s.generation++
	generation := s.generation
	s.profile = profile
	s.lastErr = nil
	conn := transport.NewSession(s.dialer, s.transportOptions...)
	s.transport = conn
	s.state = StateConnecting
	s.mu.Unlock()

	s.notify()

	setup := transport.Setup{
		Model:              s.model,
		SystemInstructions: instructions,
		VoiceName:          profile.VoiceName,
		LanguageCode:       profile.LanguageCode,
	}
	run := panicSafeNamedWorker("connection", func(ctx context.Context) error {
		return s.runConnection(ctx, generation, conn, setup)
	})
	go func() {
		if err := run(context.WithoutCancel(ctx)); err != nil {
			logger.Error("connection worker stopped", "session_id", s.id, "transport_id", conn.ID(), "error", err)
			s.handleEvent(generation, events.NewError(err))
		}
	}()

	return nil
}

func (s *Session) runConnection(ctx context.Context, generation uint64, conn *transport.Session, setup transport.Setup) error {
	ctx, span := tracer.Start(ctx, "tutoring.connect", trace.WithAttributes(
		attribute.String("session_id", s.id),
		attribute.String("transport_id", conn.ID()),
		attribute.String("language", setup.LanguageCode),
	))
	err := conn.Connect(ctx, setup)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to connect")
	}
	span.End()

	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		if closeErr := conn.Close(); closeErr != nil {
			logger.Debug("failed to close abandoned transport", "transport_id", conn.ID(), "error", closeErr)
		}
		return nil
	}
	if err != nil {
		s.transport = nil
		s.state = StateErrored
		s.lastErr = err
		s.mu.Unlock()

		logger.Warn("failed to connect", "session_id", s.id, "error", err)
		s.notify()
		return nil
	}
	s.state = StateConnectedIdle
	s.uplink.Store(conn)
	s.mu.Unlock()

	s.notify()

	for event := range conn.Events() {
		if !s.handleEvent(generation, event) || events.IsTerminal(event) {
			return nil
		}
	}
	return nil
}

// ToggleMicrophone starts capturing when the microphone is off and stops it
// when it is on. A device failure is reported both as the returned error and
// as the session error, and leaves the state unchanged.
func (s *Session) ToggleMicrophone(ctx context.Context) error {
	s.mu.Lock()
	if !s.state.IsConnected() {
		s.mu.Unlock()
		return ErrNotConnected
	}

	if s.capture.Active() {
		err := s.capture.Stop()
		if s.state == StateListening {
			s.state = StateConnectedIdle
		}
		if err != nil {
			s.lastErr = err
		}
		s.mu.Unlock()

		s.notify()
		return err
	}

	_, err := s.capture.Start(ctx, s.sendCaptured)
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()

		logger.Warn("failed to start microphone", "session_id", s.id, "error", err)
		s.notify()
		return err
	}
	s.lastErr = nil
	if s.state == StateConnectedIdle {
		s.state = StateListening
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// sendCaptured runs on the capture device thread.
func (s *Session) sendCaptured(pcm []byte) bool {
	s.framesCaptured.Add(1)
	conn := s.uplink.Load()
	if conn == nil {
		return false
	}
	return conn.SendAudio(pcm)
}

// Disconnect ends the conversation, releasing the microphone and the
// connection and clearing the transcript. It is safe to call at any time and
// more than once.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.state == StateDisconnected && s.transport == nil && !s.capture.Active() && len(s.transcript.Messages()) == 0 {
		s.mu.Unlock()
		return nil
	}

	err := s.teardownLocked()
	s.transcript.Reset()
	s.state = StateDisconnected
	s.lastErr = nil
	s.mu.Unlock()

	if err != nil {
		logger.Warn("disconnect finished with errors", "session_id", s.id, "error", err)
	}
	s.notify()
	return err
}

// SendTextMessage records a typed user turn and sends it to the tutor.
func (s *Session) SendTextMessage(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	if !s.state.IsConnected() || s.transport == nil {
		s.mu.Unlock()
		return ErrNotConnected
	}
	if err := s.transport.SendText(text); err != nil {
		s.mu.Unlock()
		if errors.Is(err, transport.ErrNotOpen) {
			return ErrNotConnected
		}
		return fmt.Errorf("failed to send text message: %w", err)
	}
	s.transcript.AddMessage(conversations.SpeakerUser, text)
	s.mu.Unlock()

	s.notify()
	return nil
}
