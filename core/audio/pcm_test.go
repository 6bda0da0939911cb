package audio

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"
)

const quantizationBound = 1.0 / 32768

func TestEncodeLinear16RoundTripStaysWithinQuantizationBound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	samples := make([]float32, 4096)
	for i := range samples {
		samples[i] = rng.Float32()*2 - 1
	}
	samples = append(samples, -1, 1, 0, 0.5, -0.5, 1.0/32768, -1.0/32768)

	decoded, err := DecodeLinear16(EncodeLinear16(samples), PlaybackSampleRate)
	if err != nil {
		t.Fatalf("expected round trip to decode, got %v", err)
	}
	if len(decoded.Samples) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded.Samples))
	}
	for i, want := range samples {
		if diff := math.Abs(float64(decoded.Samples[i] - want)); diff > quantizationBound {
			t.Fatalf("sample %d: expected %f within %g, got %f (diff %g)", i, want, quantizationBound, decoded.Samples[i], diff)
		}
	}
}

func TestEncodeLinear16QuantizesExtremesAndClamps(t *testing.T) {
	testCases := []struct {
		name     string
		sample   float32
		expected int16
	}{
		{name: "full scale positive", sample: 1, expected: 32767},
		{name: "full scale negative", sample: -1, expected: -32768},
		{name: "above range", sample: 1.7, expected: 32767},
		{name: "below range", sample: -3, expected: -32768},
		{name: "silence", sample: 0, expected: 0},
		{name: "half away from zero positive", sample: 0.5, expected: 16384},
		{name: "half away from zero negative", sample: -1.5 / 32768, expected: -2},
		{name: "nan", sample: float32(math.NaN()), expected: 0},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			encoded := EncodeLinear16([]float32{testCase.sample})
			got := int16(uint16(encoded[0]) | uint16(encoded[1])<<8)
			if got != testCase.expected {
				t.Fatalf("expected %d, got %d", testCase.expected, got)
			}
		})
	}
}

func TestEncodeLinear16EmptyInputReturnsEmptyBytes(t *testing.T) {
	encoded := EncodeLinear16(nil)
	if encoded == nil || len(encoded) != 0 {
		t.Fatalf("expected empty non-nil byte slice, got %v", encoded)
	}
}

func TestEncodeLinear16IsLittleEndian(t *testing.T) {
	encoded := EncodeLinear16([]float32{-1})
	if encoded[0] != 0x00 || encoded[1] != 0x80 {
		t.Fatalf("expected little-endian 0x8000 as [00 80], got [%02x %02x]", encoded[0], encoded[1])
	}
}

func TestDecodeLinear16RejectsOddLength(t *testing.T) {
	_, err := DecodeLinear16([]byte{0x01, 0x02, 0x03}, PlaybackSampleRate)
	if err == nil {
		t.Fatalf("expected odd-length payload to fail")
	}

	var codecErr *CodecError
	if !errors.As(err, &codecErr) {
		t.Fatalf("expected CodecError, got %T", err)
	}
	if codecErr.Len != 3 {
		t.Fatalf("expected error to report 3 bytes, got %d", codecErr.Len)
	}
}

func TestDecodeLinear16RejectsInvalidSampleRate(t *testing.T) {
	if _, err := DecodeLinear16([]byte{0, 0}, 0); !IsCodecError(err) {
		t.Fatalf("expected CodecError for zero sample rate, got %v", err)
	}
}

func TestDecodeLinear16ReportsDuration(t *testing.T) {
	buf, err := DecodeLinear16(make([]byte, PlaybackSampleRate*2), PlaybackSampleRate)
	if err != nil {
		t.Fatalf("expected decode to succeed, got %v", err)
	}
	if buf.Duration() != time.Second {
		t.Fatalf("expected 1s of audio, got %s", buf.Duration())
	}
	if buf.Frames() != PlaybackSampleRate {
		t.Fatalf("expected %d frames, got %d", PlaybackSampleRate, buf.Frames())
	}
}

func TestBase64RoundTrip(t *testing.T) {
	payload := EncodeLinear16([]float32{0.25, -0.75, 1})
	decoded, err := DecodeBase64(EncodeBase64(payload))
	if err != nil {
		t.Fatalf("expected base64 payload to decode, got %v", err)
	}
	if string(decoded) != string(payload) {
		t.Fatalf("expected %v, got %v", payload, decoded)
	}
}

func TestDecodeBase64RejectsMalformedText(t *testing.T) {
	if _, err := DecodeBase64("not base64!"); !IsCodecError(err) {
		t.Fatalf("expected CodecError, got %v", err)
	}
}

func TestEncodingInfoMIMEType(t *testing.T) {
	if got := Linear16Mono16K().MIMEType(); got != "audio/pcm;rate=16000" {
		t.Fatalf("expected capture MIME type audio/pcm;rate=16000, got %q", got)
	}
	if got := Linear16Mono24K().BytesPerSecond(); got != 48000 {
		t.Fatalf("expected 48000 bytes per second for playback, got %d", got)
	}
}

func TestDeviceErrorClassifiesDriverFailures(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "permission text", err: errors.New("Input: Permission denied by system"), expected: ErrPermissionDenied},
		{name: "access denied text", err: errors.New("ma_result: access denied"), expected: ErrPermissionDenied},
		{name: "anything else", err: errors.New("no such device"), expected: ErrDeviceUnavailable},
		{name: "already classified", err: ErrPermissionDenied, expected: ErrPermissionDenied},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := DeviceError("open input", testCase.err)
			if !errors.Is(err, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, err)
			}
			if !errors.Is(err, testCase.err) {
				t.Fatalf("expected original error to stay in chain, got %v", err)
			}
		})
	}

	if DeviceError("open input", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
