// Package monitoring holds the diagnostic logger shared by the driver,
// the harness and the ledger.
package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetOutput points Logf at a new logger writing to w with the given prefix.
// Binaries use it to tag diagnostics with the program name.
func SetOutput(w io.Writer, prefix string) {
	Logf = log.New(w, prefix, log.LstdFlags).Printf
}
