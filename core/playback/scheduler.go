package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/koscakluka/lingua-live/core/audio"
)

// Scheduled describes where a chunk landed on the output clock. EndAt is
// exclusive.
type Scheduled struct {
	ID      uint64
	StartAt int64
	EndAt   int64
}

// Scheduler lines incoming tutor audio up back-to-back on the output clock and
// cancels everything pending on interruption.
//
// The cursor is the frame at which the next chunk must begin. It only moves
// forward, except on [Scheduler.Interrupt] and [Scheduler.Reset] which pull it
// back to the current clock time.
type Scheduler struct {
	mu sync.Mutex

	output Output
	cursor int64
	nextID uint64
	active map[uint64]Voice
}

func NewScheduler(output Output) *Scheduler {
	return &Scheduler{
		output: output,
		cursor: output.Now(),
		active: make(map[uint64]Voice),
	}
}

// Enqueue decodes a linear16 chunk and schedules it right after the previous
// one. If the clock already passed the cursor (nothing was playing) the chunk
// starts now instead of in the past.
//
// Malformed chunks return a [audio.CodecError] and leave the cursor untouched.
func (s *Scheduler) Enqueue(pcm []byte) (Scheduled, error) {
	buf, err := audio.DecodeLinear16(pcm, s.output.SampleRate())
	if err != nil {
		codecErrorsCounter.Add(context.Background(), 1)
		return Scheduled{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	startAt := max(s.cursor, s.output.Now())
	if buf.Frames() == 0 {
		return Scheduled{StartAt: startAt, EndAt: startAt}, nil
	}

	s.nextID++
	id := s.nextID
	voice, err := s.output.Schedule(buf, startAt, func() { s.finished(id) })
	if err != nil {
		return Scheduled{}, fmt.Errorf("failed to schedule chunk: %w", err)
	}

	s.active[id] = voice
	s.cursor = startAt + buf.Frames()
	chunksCounter.Add(context.Background(), 1)

	return Scheduled{ID: id, StartAt: startAt, EndAt: s.cursor}, nil
}

func (s *Scheduler) finished(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
}

// Interrupt stops every scheduled chunk and resets the cursor to the current
// clock time. It returns the number of chunks that were cut off.
func (s *Scheduler) Interrupt() int {
	stopped := s.clear()
	if stopped > 0 {
		interruptionsCounter.Add(context.Background(), 1)
		logger.Debug("playback interrupted", "stopped_chunks", stopped)
	}
	return stopped
}

// Reset drops all pending playback, used when a connection starts or ends.
func (s *Scheduler) Reset() { s.clear() }

func (s *Scheduler) clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	stopped := len(s.active)
	for id, voice := range s.active {
		voice.Stop()
		delete(s.active, id)
	}
	s.cursor = s.output.Now()
	return stopped
}

// Cursor is the frame at which the next chunk will start (or later, if the
// clock has moved past it).
func (s *Scheduler) Cursor() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Active is the number of chunks scheduled and not yet finished.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

func (s *Scheduler) Playing() bool { return s.Active() > 0 }

// Buffered is how much scheduled audio is still ahead of the clock.
func (s *Scheduler) Buffered() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	ahead := s.cursor - s.output.Now()
	if ahead <= 0 {
		return 0
	}
	return time.Duration(ahead) * time.Second / time.Duration(s.output.SampleRate())
}
