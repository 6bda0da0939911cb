package tutoring

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/lingua-live/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	captureFramesCounter, _ = meter.Int64Counter("lingua_live.capture.frames",
		metric.WithDescription("Microphone frames encoded for the transport"),
		metric.WithUnit("{frame}"))
)
