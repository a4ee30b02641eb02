package ecscore

import (
	"time"

	"go.uber.org/zap"
)

// Diagnostics is the pluggable observability seam the runtime reports
// system execution and commit activity through, matching the ambient
// "structured logging rather than hand-rolled log lines" convention
// used throughout this stack.
type Diagnostics interface {
	SystemStart(name string)
	SystemEnd(name string, err error, duration time.Duration)
	CommitStart()
	CommitEnd(duration time.Duration)
}

// NopDiagnostics discards every event. It is the default when no
// Diagnostics is supplied via WithDiagnostics.
type NopDiagnostics struct{}

func (NopDiagnostics) SystemStart(string)                     {}
func (NopDiagnostics) SystemEnd(string, error, time.Duration) {}
func (NopDiagnostics) CommitStart()                           {}
func (NopDiagnostics) CommitEnd(time.Duration)                {}

// ZapDiagnostics reports runtime events as structured zap fields.
type ZapDiagnostics struct {
	log *zap.Logger
}

// NewZapDiagnostics returns a Diagnostics backed by log.
func NewZapDiagnostics(log *zap.Logger) *ZapDiagnostics {
	return &ZapDiagnostics{log: log}
}

func (d *ZapDiagnostics) SystemStart(name string) {
	d.log.Debug("system start", zap.String("system", name))
}

func (d *ZapDiagnostics) SystemEnd(name string, err error, duration time.Duration) {
	fields := []zap.Field{zap.String("system", name), zap.Duration("duration", duration)}
	if err != nil {
		d.log.Error("system end", append(fields, zap.Error(err))...)
		return
	}
	d.log.Debug("system end", fields...)
}

func (d *ZapDiagnostics) CommitStart() {
	d.log.Debug("commit start")
}

func (d *ZapDiagnostics) CommitEnd(duration time.Duration) {
	d.log.Debug("commit end", zap.Duration("duration", duration))
}
