package tgen

import "log/slog"

// LevelTrace is below slog.LevelDebug; every dispatched step is logged at
// this level.
const LevelTrace = slog.LevelDebug - 4
