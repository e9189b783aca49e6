package publishers

import "github.com/spexpress/spexpress-go/pkg/structlog"

// Logger defines the logging surface publishers rely on.
type Logger = structlog.Logger

func ensureLogger(log Logger) Logger { return structlog.OrNop(log) }
