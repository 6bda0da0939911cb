package events

const (
	// KindAudioChunk identifies synthesized tutor audio (24 kHz linear16).
	KindAudioChunk Kind = "tutor_speech.audio_chunk"
	// KindOutputTranscriptDelta identifies incremental transcription of tutor speech.
	KindOutputTranscriptDelta Kind = "tutor_speech.transcript_delta"
	// KindInputTranscriptDelta identifies incremental transcription of user speech.
	KindInputTranscriptDelta Kind = "user_input.transcript_delta"
	// KindTurnComplete identifies the end of the current turn.
	KindTurnComplete Kind = "turn_state.completed"
	// KindInterrupted identifies a barge-in reported by the remote endpoint.
	KindInterrupted Kind = "turn_state.interrupted"
	// KindClosed identifies a normal closure of the connection by the remote endpoint.
	KindClosed Kind = "connection.closed"
	// KindError identifies a transport failure that ended the connection.
	KindError Kind = "connection.error"
)

// AudioChunk carries decoded PCM bytes of tutor speech.
type AudioChunk struct {
	Base
	Audio []byte
}

// NewAudioChunk creates a tutor audio chunk event.
func NewAudioChunk(audio []byte) AudioChunk {
	return AudioChunk{Base: NewBase(KindAudioChunk), Audio: audio}
}

// InputTranscriptDelta carries an append-only piece of the user transcript.
type InputTranscriptDelta struct {
	Base
	Text string
}

// NewInputTranscriptDelta creates a user transcript delta event.
func NewInputTranscriptDelta(text string) InputTranscriptDelta {
	return InputTranscriptDelta{Base: NewBase(KindInputTranscriptDelta), Text: text}
}

// OutputTranscriptDelta carries an append-only piece of the tutor transcript.
type OutputTranscriptDelta struct {
	Base
	Text string
}

// NewOutputTranscriptDelta creates a tutor transcript delta event.
func NewOutputTranscriptDelta(text string) OutputTranscriptDelta {
	return OutputTranscriptDelta{Base: NewBase(KindOutputTranscriptDelta), Text: text}
}

// TurnComplete marks the end of a turn.
type TurnComplete struct{ Base }

// NewTurnComplete creates a turn complete event.
func NewTurnComplete() TurnComplete {
	return TurnComplete{Base: NewBase(KindTurnComplete)}
}

// Interrupted marks that the user barged in over tutor speech.
type Interrupted struct{ Base }

// NewInterrupted creates an interruption event.
func NewInterrupted() Interrupted {
	return Interrupted{Base: NewBase(KindInterrupted)}
}

// Closed marks a normal remote closure.
type Closed struct {
	Base
	Reason string
}

// NewClosed creates a connection closed event.
func NewClosed(reason string) Closed {
	return Closed{Base: NewBase(KindClosed), Reason: reason}
}

// Error marks a transport failure. Err is never nil.
type Error struct {
	Base
	Err error
}

// NewError creates a connection error event.
func NewError(err error) Error {
	return Error{Base: NewBase(KindError), Err: err}
}
