// Package logging adapts the orchestrator's Logger interface to a
// structured zap backend.
package logging

import (
	"go.uber.org/zap"

	"github.com/pitchloop-ai/session-orchestrator/pkg/orchestrator"
)

// ZapLogger implements orchestrator.Logger over a zap.SugaredLogger,
// tagging every entry with a fixed component name.
type ZapLogger struct {
	sugar     *zap.SugaredLogger
	component string
}

// New builds a production zap logger at the given level ("debug", "info",
// "warn", "error").
func New(level string) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{sugar: base.Sugar()}, nil
}

// NewNop returns a logger that discards all output, for tests.
func NewNop() *ZapLogger {
	return &ZapLogger{sugar: zap.NewNop().Sugar()}
}

// With returns a logger scoped to component, carrying sessionId/tenantId
// as structured fields on every subsequent entry.
func (l *ZapLogger) With(component, sessionID, tenantID string) *ZapLogger {
	fields := []interface{}{"component", component}
	if sessionID != "" {
		fields = append(fields, "sessionId", sessionID)
	}
	if tenantID != "" {
		fields = append(fields, "tenantId", tenantID)
	}
	return &ZapLogger{sugar: l.sugar.With(fields...), component: component}
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) { l.sugar.Debugw(msg, args...) }
func (l *ZapLogger) Info(msg string, args ...interface{})  { l.sugar.Infow(msg, args...) }
func (l *ZapLogger) Warn(msg string, args ...interface{})  { l.sugar.Warnw(msg, args...) }
func (l *ZapLogger) Error(msg string, args ...interface{}) { l.sugar.Errorw(msg, args...) }

// Sync flushes any buffered log entries; call before process exit.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

var _ orchestrator.Logger = (*ZapLogger)(nil)
