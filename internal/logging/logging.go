// Package logging builds the zap logger used across policyeval.
//
// Diagnostics go to stderr so that stdout stays reserved for progress lines
// and command output.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names.
const (
	FieldRunID       = "run_id"
	FieldBaseURL     = "base_url"
	FieldInstruction = "instruction"
	FieldCase        = "case"
	FieldDurationMS  = "duration_ms"
	FieldIssues      = "issues"
	FieldPassed      = "passed"
	FieldTotal       = "total"
	FieldOutput      = "output"
)

// Options selects the logger flavour.
type Options struct {
	Verbose bool
	JSON    bool
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// New returns a logger for opts. Without Verbose only warnings and errors
// are emitted.
func New(opts Options) *zap.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := zap.WarnLevel
	if opts.Verbose {
		level = zap.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if opts.JSON {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encCfg.EncodeCaller = nil
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

// Nop is the logger used when none is configured.
func Nop() *zap.Logger { return zap.NewNop() }

// OrNop guards against nil loggers handed to constructors.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
