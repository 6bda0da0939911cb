package tutoring

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestPanicSafeNamedWorkerRecoversPanics(t *testing.T) {
	run := panicSafeNamedWorker("connection", func(context.Context) error {
		panic("boom")
	})

	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "connection worker panicked: boom") {
		t.Fatalf("expected recovered panic error, got %v", err)
	}
}

func TestPanicSafeNamedWorkerWrapsErrors(t *testing.T) {
	cause := errors.New("dial failed")
	run := panicSafeNamedWorker("connection", func(context.Context) error { return cause })

	if err := run(context.Background()); !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if err := panicSafeNamedWorker("noop", func(context.Context) error { return nil })(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
