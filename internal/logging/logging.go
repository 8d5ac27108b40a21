// Package logging builds the logr.Logger shared by the import components.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// New returns a logger writing to stderr. Messages logged with V(n) are shown
// when n <= verbosity; a negative verbosity discards everything.
func New(verbosity int) logr.Logger {
	return NewWithWriter(os.Stderr, verbosity)
}

func NewWithWriter(w io.Writer, verbosity int) logr.Logger {
	if verbosity < 0 {
		return logr.Discard()
	}
	stdr.SetVerbosity(verbosity)
	return stdr.NewWithOptions(log.New(w, "", log.LstdFlags), stdr.Options{LogCaller: stdr.None}).WithName("classgraph")
}
