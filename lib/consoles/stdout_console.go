package consoles

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abiosoft/lineprefix"
)

type stdoutConsole struct {
	verbose  bool
	prefixes []string
}

func NewStdOutConsole(verbose bool) Console {
	return &stdoutConsole{verbose: verbose}
}

func (o *stdoutConsole) Printf(format string, a ...any) {
	builder := strings.Builder{}
	builder.WriteString("[")
	builder.WriteString(time.Now().Format("15:04:05"))
	builder.WriteString("] ")
	for _, prefix := range o.prefixes {
		builder.WriteString(prefix)
	}
	builder.WriteString(fmt.Sprintf(format, a...))
	print(builder.String())
}

func (o *stdoutConsole) PushPrefix(format string, a ...any) {
	o.prefixes = append(o.prefixes, fmt.Sprintf(format, a...))
}

func (o *stdoutConsole) PopPrefix() {
	o.prefixes = o.prefixes[:len(o.prefixes)-1]
}

func (o *stdoutConsole) Verbose() io.Writer {
	if !o.verbose {
		return io.Discard
	}

	prefix := lineprefix.PrefixFunc(func() string {
		result := "[" + time.Now().Format("15:04:05") + "] "
		for _, p := range o.prefixes {
			result += p
		}
		return result
	})

	return lineprefix.New(lineprefix.Writer(os.Stdout), prefix)
}
