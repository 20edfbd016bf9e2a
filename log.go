package topicquiz

import (
	"io"
	"log"
	"sync/atomic"
)

var verboseMode atomic.Bool

// ConfigureLogging sets the output and flags of the standard logger used by
// the server and the CLI, and the verbose gate.
func ConfigureLogging(w io.Writer, verbose bool) {
	log.SetOutput(w)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	SetVerbose(verbose)
}

// SetVerbose sets the global verbose mode
func SetVerbose(verbose bool) {
	verboseMode.Store(verbose)
}

// VerboseLog logs only when verbose mode is enabled
func VerboseLog(format string, v ...interface{}) {
	if verboseMode.Load() {
		log.Printf(format, v...)
	}
}
