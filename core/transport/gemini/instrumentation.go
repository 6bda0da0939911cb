package gemini

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/lingua-live/core/transport/gemini"

var logger = otelslog.NewLogger(scopeName)
