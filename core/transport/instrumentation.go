package transport

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/lingua-live/core/transport"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	droppedFramesCounter, _ = meter.Int64Counter("lingua_live.transport.dropped_frames",
		metric.WithDescription("Outbound audio frames dropped because the session was not open or the queue was full"),
		metric.WithUnit("{frame}"))
)
