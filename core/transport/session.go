package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/koscakluka/lingua-live/core/events"
)

type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

const (
	DefaultQueueSize   = 64
	DefaultEventBuffer = 128
)

type Stats struct {
	SentFrames     int64
	DroppedFrames  int64
	ReceivedEvents int64
}

type outboundFrame struct {
	audio  []byte
	text   string
	isText bool
}

// Session is one connection attempt to a live endpoint. It is single use:
// once closed, a new Session must be created to reconnect.
//
// Outbound audio and text share one ordered queue drained by a writer
// goroutine. Inbound events are forwarded in arrival order by a reader
// goroutine and are never dropped; the channel returned by [Session.Events]
// is closed after the terminal [events.Closed] or [events.Error]. A local
// [Session.Close] emits no terminal event.
type Session struct {
	id     string
	dialer Dialer

	queueSize   int
	eventBuffer int

	mu      sync.Mutex
	state   atomic.Int32
	conn    Conn
	reading bool
	failure error
	cancel  context.CancelFunc

	outbound chan outboundFrame
	events   chan events.Event

	stop   chan struct{}
	closed chan struct{}

	teardownOnce    sync.Once
	closeOnce       sync.Once
	closeEventsOnce sync.Once

	sent     atomic.Int64
	dropped  atomic.Int64
	received atomic.Int64
}

type SessionOption func(*Session)

// WithQueueSize bounds the number of outbound frames waiting to be written.
func WithQueueSize(size int) SessionOption {
	return func(s *Session) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

func WithEventBuffer(size int) SessionOption {
	return func(s *Session) {
		if size >= 0 {
			s.eventBuffer = size
		}
	}
}

func NewSession(dialer Dialer, opts ...SessionOption) *Session {
	s := &Session{
		id:          uuid.NewString(),
		dialer:      dialer,
		queueSize:   DefaultQueueSize,
		eventBuffer: DefaultEventBuffer,
		stop:        make(chan struct{}),
		closed:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.outbound = make(chan outboundFrame, s.queueSize)
	s.events = make(chan events.Event, s.eventBuffer)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) Events() <-chan events.Event { return s.events }

func (s *Session) Stats() Stats {
	return Stats{
		SentFrames:     s.sent.Load(),
		DroppedFrames:  s.dropped.Load(),
		ReceivedEvents: s.received.Load(),
	}
}

// Connect dials the endpoint and blocks until the connection is open or has
// failed. It may only be called once; later calls return ErrAlreadyStarted
// without dialing. Closing the session cancels a dial in progress.
func (s *Session) Connect(ctx context.Context, setup Setup) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.State() == StateClosed {
		s.mu.Unlock()
		cancel()
		return &ConnectionError{Op: "connect", Err: ErrClosed}
	}
	s.cancel = cancel
	s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "transport.connect", trace.WithAttributes(
		attribute.String("session_id", s.id),
		attribute.String("model", setup.Model),
		attribute.String("voice", setup.VoiceName),
	))
	defer span.End()

	conn, err := s.dialer.Dial(ctx, setup)
	if err != nil {
		connErr := &ConnectionError{Op: "connect", Err: err}
		if s.State() == StateClosed {
			connErr.Err = fmt.Errorf("%w: %w", ErrClosed, err)
		}
		span.RecordError(connErr)
		span.SetStatus(codes.Error, "failed to connect")
		s.teardown()
		s.mu.Lock()
		s.closeEventsLocked()
		s.mu.Unlock()
		return connErr
	}

	s.mu.Lock()
	if s.State() != StateConnecting {
		s.mu.Unlock()
		if err := conn.Close(); err != nil {
			logger.Warn("failed to close connection opened after session close", "session_id", s.id, "error", err)
		}
		span.SetStatus(codes.Error, "closed while connecting")
		return &ConnectionError{Op: "connect", Err: ErrClosed}
	}
	s.conn = conn
	s.reading = true
	s.state.Store(int32(StateOpen))
	s.mu.Unlock()

	go s.writeLoop(conn)
	go s.readLoop(conn)

	logger.Info("live session open", "session_id", s.id, "model", setup.Model)
	return nil
}

// SendAudio queues a captured frame without blocking. It reports false when
// the frame was dropped because the session is not open or the queue is full.
func (s *Session) SendAudio(pcm []byte) bool {
	if s.State() != StateOpen {
		s.drop()
		return false
	}

	select {
	case s.outbound <- outboundFrame{audio: pcm}:
		return true
	default:
		s.drop()
		return false
	}
}

// SendText queues a user text turn behind any audio already queued.
func (s *Session) SendText(text string) error {
	if s.State() != StateOpen {
		return ErrNotOpen
	}

	select {
	case s.outbound <- outboundFrame{text: text, isText: true}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Session) drop() {
	s.dropped.Add(1)
	droppedFramesCounter.Add(context.Background(), 1)
}

// Close tears the session down. It is safe to call in any state and more than
// once; only the first call can return an error.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.teardown()

		s.mu.Lock()
		if !s.reading {
			s.closeEventsLocked()
		}
		s.mu.Unlock()
	})
	return err
}

func (s *Session) teardown() error {
	var err error
	s.teardownOnce.Do(func() {
		s.mu.Lock()
		s.state.Store(int32(StateClosed))
		conn := s.conn
		cancel := s.cancel
		s.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		close(s.stop)
		if conn != nil {
			if closeErr := conn.Close(); closeErr != nil {
				err = fmt.Errorf("failed to close connection: %w", closeErr)
			}
		}
	})
	return err
}

func (s *Session) closeEventsLocked() {
	s.closeEventsOnce.Do(func() { close(s.events) })
}

func (s *Session) writeLoop(conn Conn) {
	for {
		select {
		case <-s.stop:
			return
		case frame := <-s.outbound:
			var err error
			if frame.isText {
				err = conn.SendText(frame.text)
			} else {
				err = conn.SendAudio(frame.audio)
			}
			if err != nil {
				s.fail(&ConnectionError{Op: "send", Err: err})
				if closeErr := conn.Close(); closeErr != nil {
					logger.Debug("failed to close connection after send error", "session_id", s.id, "error", closeErr)
				}
				return
			}
			s.sent.Add(1)
		}
	}
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure == nil {
		s.failure = err
	}
}

func (s *Session) readLoop(conn Conn) {
	defer func() {
		s.mu.Lock()
		s.closeEventsLocked()
		s.mu.Unlock()
	}()

	for {
		batch, err := conn.Receive()
		for _, event := range batch {
			if !s.emit(event) {
				return
			}
		}
		if err != nil {
			s.finish(err)
			return
		}
	}
}

func (s *Session) emit(event events.Event) bool {
	select {
	case s.events <- event:
		s.received.Add(1)
		return true
	case <-s.closed:
		return false
	}
}

func (s *Session) finish(err error) {
	select {
	case <-s.closed:
		return
	default:
	}

	s.mu.Lock()
	failure := s.failure
	s.mu.Unlock()

	var terminal events.Event
	switch {
	case failure != nil:
		terminal = events.NewError(failure)
	case errors.Is(err, io.EOF):
		terminal = events.NewClosed("remote closed the connection")
	default:
		terminal = events.NewError(&ConnectionError{Op: "receive", Err: err})
	}

	if err := s.teardown(); err != nil {
		logger.Debug("teardown after remote close", "session_id", s.id, "error", err)
	}
	if errEvent, ok := terminal.(events.Error); ok {
		logger.Warn("live session dropped", "session_id", s.id, "error", errEvent.Err)
	} else {
		logger.Info("live session closed by remote", "session_id", s.id)
	}
	s.emit(terminal)
}
