package transport

import (
	"context"

	"github.com/koscakluka/lingua-live/core/events"
)

// Setup is sent once when the connection opens. Transcription of both
// directions is always requested.
type Setup struct {
	Model              string
	SystemInstructions string
	VoiceName          string
	LanguageCode       string
}

// Dialer opens a connection to a live tutoring endpoint. Dial returns only
// once the endpoint has accepted the setup.
type Dialer interface {
	Dial(ctx context.Context, setup Setup) (Conn, error)
}

type DialerFunc func(ctx context.Context, setup Setup) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, setup Setup) (Conn, error) { return f(ctx, setup) }

// Conn is an open provider connection. SendAudio and SendText are only ever
// called from one goroutine, as is Receive.
type Conn interface {
	// SendAudio sends one linear16 frame at the capture rate.
	SendAudio(pcm []byte) error
	// SendText sends a complete user text turn.
	SendText(text string) error
	// Receive blocks for the next server message and returns the events it
	// carries, in order. A message may carry no events. It returns io.EOF
	// when the endpoint closed the connection normally.
	Receive() ([]events.Event, error)
	// Close unblocks Receive. It may be called more than once.
	Close() error
}
