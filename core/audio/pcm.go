package audio

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"time"
)

const (
	maxPositive = math.MaxInt16  // 32767
	maxNegative = -math.MinInt16 // 32768
	sampleBytes = 2

	decodeScale = float32(maxNegative)
)

// Buffer is decoded, playable mono audio.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Frames is the number of sample frames in the buffer.
func (b Buffer) Frames() int64 { return int64(len(b.Samples)) }

func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// EncodeLinear16 quantizes floating point samples in [-1, 1] to signed 16-bit
// little-endian PCM. Values outside the range are clamped; rounding is half
// away from zero.
func EncodeLinear16(samples []float32) []byte {
	out := make([]byte, len(samples)*sampleBytes)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*sampleBytes:], uint16(quantize(s)))
	}
	return out
}

func quantize(sample float32) int16 {
	s := float64(sample)
	switch {
	case math.IsNaN(s):
		return 0
	case s > 1:
		s = 1
	case s < -1:
		s = -1
	}

	var scaled float64
	if s < 0 {
		scaled = math.Round(s * maxNegative)
	} else {
		scaled = math.Round(s * maxPositive)
	}

	if scaled > maxPositive {
		return maxPositive
	} else if scaled < -maxNegative {
		return -maxNegative
	}
	return int16(scaled)
}

// DecodeLinear16 converts signed 16-bit little-endian PCM back into floating
// point amplitude. It is the exact inverse of the scaling used by
// [EncodeLinear16].
func DecodeLinear16(data []byte, sampleRate int) (Buffer, error) {
	if sampleRate <= 0 {
		return Buffer{}, &CodecError{Op: "decode", Len: len(data), Err: errBadSampleRate}
	}
	if len(data)%sampleBytes != 0 {
		return Buffer{}, &CodecError{Op: "decode", Len: len(data), Err: errOddLength}
	}

	samples := make([]float32, len(data)/sampleBytes)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[i*sampleBytes:]))
		if v < 0 {
			samples[i] = float32(v) / decodeScale
		} else {
			samples[i] = float32(v) / maxPositive
		}
	}
	return Buffer{Samples: samples, SampleRate: sampleRate}, nil
}

// EncodeBase64 renders PCM bytes in the wire's text-safe representation.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 parses the wire's text-safe representation back to bytes.
func DecodeBase64(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, &CodecError{Op: "base64", Len: len(text), Err: errInvalidPayload}
	}
	return data, nil
}
