// Package diag provides structured, leveled logging for the pipeline,
// replacing the teacher's verbose-mode fmt.Println printouts with a
// zap logger carrying a run id on every entry.
package diag

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger wraps a *zap.Logger tagged with the run id of the pipeline
// invocation that created it.
type Logger struct {
	*zap.Logger
	RunID string
}

// New builds a Logger. verbose selects zap's development config (debug
// level, human-readable console encoding); otherwise it uses the
// production config (info level, JSON encoding).
func New(verbose bool) (*Logger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	return &Logger{Logger: base.With(zap.String("run_id", runID)), RunID: runID}, nil
}

// Sync flushes buffered log entries. Callers should defer it, matching the
// teacher's deferred util.Close() shutdown.
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
