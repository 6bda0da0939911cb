package playback

import "github.com/koscakluka/lingua-live/core/audio"

// Clock is the output audio clock. Now reports the number of sample frames the
// output device has rendered since it started; it advances in real time,
// independently of the application, and never goes backwards.
type Clock interface {
	Now() int64
}

// Voice is a chunk that has been handed to an output for playback.
type Voice interface {
	// Stop silences the chunk immediately. Its onEnded callback is not called.
	Stop()
}

// Output plays decoded audio at precise positions of its own clock.
type Output interface {
	Clock
	SampleRate() int
	// Schedule queues buf to start at frame startAt. onEnded is called once,
	// from a goroutine that holds no output locks, after the last frame has
	// been rendered.
	Schedule(buf audio.Buffer, startAt int64, onEnded func()) (Voice, error)
}
