// Package logging builds the structured logger shared by every mode.
// Output goes to stderr so stdout stays free for the host-contract JSON.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// New returns a console logger at the given level ("debug", "info", "warn",
// "error"). Unknown levels fall back to info.
func New(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl := log.ParseLevel(level)
	if level == "" {
		lvl = log.InfoLevel
	}
	return &log.Logger{
		Level:      lvl,
		TimeFormat: "15:04:05.000",
		Writer: &log.ConsoleWriter{
			Writer:      w,
			ColorOutput: isTerminal(w),
		},
	}
}

// Discard returns a logger that drops everything. Tests use it.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.PanicLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return log.IsTerminal(f.Fd())
}
