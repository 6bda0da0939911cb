package audio

import "strconv"

const (
	// CaptureSampleRate is the rate the remote endpoint expects for user audio.
	CaptureSampleRate = 16000
	// PlaybackSampleRate is the rate of synthesized tutor audio.
	PlaybackSampleRate = 24000

	DefaultFormat = "linear16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: CaptureSampleRate, Format: encodingFormat(DefaultFormat)}
}

// Linear16Mono16K is the outbound (microphone) wire encoding.
func Linear16Mono16K() EncodingInfo {
	return EncodingInfo{SampleRate: CaptureSampleRate, Format: EncodingLinear16}
}

// Linear16Mono24K is the inbound (tutor speech) wire encoding.
func Linear16Mono24K() EncodingInfo {
	return EncodingInfo{SampleRate: PlaybackSampleRate, Format: EncodingLinear16}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

// MIMEType returns the descriptor attached to outbound audio frames, e.g.
// "audio/pcm;rate=16000".
func (e EncodingInfo) MIMEType() string {
	return "audio/pcm;rate=" + strconv.Itoa(e.SampleRate)
}

// BytesPerSecond is the byte rate of a mono stream in this encoding.
func (e EncodingInfo) BytesPerSecond() int {
	return e.SampleRate * e.Format.ByteSize()
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingLinear16:
		return 2
	case EncodingFloat32:
		return 4
	}
	return -1
}

const (
	EncodingLinear16 encodingFormat = "linear16"
	EncodingFloat32  encodingFormat = "float32"
)
