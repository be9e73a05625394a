package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	profile = termenv.EnvColorProfile()
)

// SetColorForcing overrides colour detection: disable wins over force.
func SetColorForcing(force, disable bool) {
	switch {
	case disable:
		profile = termenv.Ascii
	case force:
		if profile == termenv.Ascii {
			profile = termenv.ANSI256
		}
	default:
		profile = termenv.EnvColorProfile()
	}
}

// SetOutput redirects OK/Fail/Panel; tests point it at a buffer.
func SetOutput(out, errOut io.Writer) {
	stdout, stderr = out, errOut
}

// Paint is one text style of a theme.
type Paint struct {
	Fg       string
	Bold     bool
	Faint    bool
	CrossOut bool
}

func (p Paint) Render(s string) string {
	if profile == termenv.Ascii || s == "" {
		return s
	}
	st := termenv.String(s)
	if p.Fg != "" {
		st = st.Foreground(profile.Color(p.Fg))
	}
	if p.Bold {
		st = st.Bold()
	}
	if p.Faint {
		st = st.Faint()
	}
	if p.CrossOut {
		st = st.CrossOut()
	}
	return st.String()
}

func OK(msg string)   { fmt.Fprintln(stdout, Current().Success.Render(Current().SymDone+" "+msg)) }
func Fail(msg string) { fmt.Fprintln(stderr, Current().Error.Render(Current().SymFail+" "+msg)) }

// Hint prints a muted follow-up line to stderr.
func Hint(msg string) { fmt.Fprintln(stderr, Current().Muted.Render(msg)) }
