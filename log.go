package openlearnhub

import "log"

var verbose bool

// SetVerbose toggles debug logging for the whole package. The
// webserver and CLI set it once at startup from their environment.
func SetVerbose(on bool) {
	verbose = on
}

// VerboseLog writes a log line when verbose logging is on and is
// silent otherwise.
func VerboseLog(format string, v ...interface{}) {
	if !verbose {
		return
	}
	log.Printf(format, v...)
}
