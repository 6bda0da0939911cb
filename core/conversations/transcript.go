package conversations

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerTutor Speaker = "tutor"
)

func (s Speaker) String() string { return string(s) }

// Message is a finalised turn in the transcript log. It is never modified
// after it has been appended.
type Message struct {
	ID        string
	Seq       int64
	Speaker   Speaker
	Text      string
	CreatedAt time.Time
}

// Transcript assembles streaming transcription into an append-only log.
//
// Deltas accumulate per speaker until the turn is committed; committing
// moves every non-blank accumulator into the log, user first.
type Transcript struct {
	mu sync.RWMutex

	messages []Message
	lastSeq  int64

	input  strings.Builder
	output strings.Builder

	now func() time.Time
}

var _ View = (*Transcript)(nil)

func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

// AppendInput adds a fragment of the user's transcribed speech.
func (t *Transcript) AppendInput(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input.WriteString(text)
}

// AppendOutput adds a fragment of the tutor's transcribed speech.
func (t *Transcript) AppendOutput(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.output.WriteString(text)
}

// CommitTurn closes the current turn and returns the messages it produced,
// which may be none.
func (t *Transcript) CommitTurn() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	var committed []Message
	for _, segment := range []struct {
		speaker Speaker
		buf     *strings.Builder
	}{
		{SpeakerUser, &t.input},
		{SpeakerTutor, &t.output},
	} {
		text := strings.TrimSpace(segment.buf.String())
		segment.buf.Reset()
		if text == "" {
			continue
		}
		committed = append(committed, t.appendLocked(segment.speaker, text))
	}
	return committed
}

// AddMessage appends a complete message without going through the
// accumulators. Blank text is ignored.
func (t *Transcript) AddMessage(speaker Speaker, text string) (Message, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.appendLocked(speaker, text), true
}

func (t *Transcript) appendLocked(speaker Speaker, text string) Message {
	t.lastSeq++
	message := Message{
		ID:        uuid.NewString(),
		Seq:       t.lastSeq,
		Speaker:   speaker,
		Text:      text,
		CreatedAt: t.now(),
	}
	t.messages = append(t.messages, message)
	return message
}

func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.messages)
}

// Partial is the uncommitted text of the speaker's current turn.
func (t *Transcript) Partial(speaker Speaker) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	switch speaker {
	case SpeakerUser:
		return t.input.String()
	case SpeakerTutor:
		return t.output.String()
	default:
		return ""
	}
}

// Reset discards the log and both accumulators. Sequence numbers restart.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = nil
	t.lastSeq = 0
	t.input.Reset()
	t.output.Reset()
}
