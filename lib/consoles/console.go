package consoles

import (
	"io"
)

type Console interface {
	Printf(format string, a ...any)

	PushPrefix(format string, a ...any)
	PopPrefix()

	// Verbose returns a writer for diagnostics, or io.Discard when verbose
	// output is disabled. Diagnostics never affect control flow.
	Verbose() io.Writer
}
