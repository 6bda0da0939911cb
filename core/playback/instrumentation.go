package playback

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/koscakluka/lingua-live/core/playback"

var (
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	chunksCounter, _ = meter.Int64Counter("lingua_live.playback.chunks",
		metric.WithDescription("Tutor audio chunks scheduled for playback"),
		metric.WithUnit("{chunk}"))
	codecErrorsCounter, _ = meter.Int64Counter("lingua_live.playback.codec_errors",
		metric.WithDescription("Tutor audio chunks dropped because they could not be decoded"),
		metric.WithUnit("{chunk}"))
	interruptionsCounter, _ = meter.Int64Counter("lingua_live.playback.interruptions",
		metric.WithDescription("Barge-ins that cut off scheduled playback"))
)
