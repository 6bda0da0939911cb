package audio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPermissionDenied is returned by input devices when the user or the OS
	// refuses microphone access.
	ErrPermissionDenied = errors.New("microphone permission denied")
	// ErrDeviceUnavailable is returned when no usable input device exists.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	errOddLength      = errors.New("odd number of bytes for 16-bit samples")
	errBadSampleRate  = errors.New("sample rate must be positive")
	errInvalidPayload = errors.New("invalid base64 payload")
)

// CodecError reports a malformed audio payload. The payload is always dropped
// whole; nothing is truncated.
type CodecError struct {
	Op  string
	Len int
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("audio codec: %s (%d bytes): %v", e.Op, e.Len, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// IsCodecError reports whether err is, or wraps, a [CodecError].
func IsCodecError(err error) bool {
	var codecErr *CodecError
	return errors.As(err, &codecErr)
}

// DeviceError classifies a driver failure into [ErrPermissionDenied] or
// [ErrDeviceUnavailable], keeping the original error in the chain. Drivers
// only report access refusal in their message text.
func DeviceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "access denied") || strings.Contains(msg, "not authorized") {
		return fmt.Errorf("%s: %w", op, errors.Join(ErrPermissionDenied, err))
	}
	return fmt.Errorf("%s: %w", op, errors.Join(ErrDeviceUnavailable, err))
}
