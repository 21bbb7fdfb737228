// Package logging builds the zap logger used by the command line.
package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to w. Verbose runs log every step, debug
// included, as colored console lines. Otherwise only warnings and errors are
// logged, one JSON object per line, so the report on stdout stays readable.
func New(w io.Writer, verbose bool) *zap.Logger {
	encoding := zap.NewProductionEncoderConfig()
	encoding.TimeKey = "ts"
	encoding.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.WarnLevel
	encoder := zapcore.NewJSONEncoder(encoding)
	if verbose {
		level = zapcore.DebugLevel
		encoding.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoding)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core, zap.AddCaller())
}
