package kernelctx

import (
	"flag"
	"io"
	"log"
	"os"
	"sync"
)

var fEnableDebug = flag.Bool(
	"kernelctx.debug",
	false,
	"Write kernelctx scheduler debugging messages to stderr.")

var gLogger *log.Logger
var gLoggerOnce sync.Once

func initLogger() {
	var writer io.Writer = io.Discard
	if flag.Parsed() && *fEnableDebug {
		writer = os.Stderr
	}

	const flags = log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile
	gLogger = log.New(writer, "kernelctx: ", flags)
}

// getLogger returns the package-wide debug logger, constructing it (gated
// behind -kernelctx.debug) on first use.
func getLogger() *log.Logger {
	gLoggerOnce.Do(initLogger)
	return gLogger
}
