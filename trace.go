package heist

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'heist.macro'.
func tracer() tracing.Trace {
	return tracing.Select("heist.macro")
}

// SetTracing switches tracing of macro expansion at debug level on or off.
func SetTracing(on bool) {
	if on {
		tracer().SetTraceLevel(tracing.LevelDebug)
	} else {
		tracer().SetTraceLevel(tracing.LevelError)
	}
}
