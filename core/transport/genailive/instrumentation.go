package genailive

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/lingua-live/core/transport/genailive"

var logger = otelslog.NewLogger(scopeName)
