package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Style is a terminal emphasis applied to a write
type Style int

const (
	StylePlain Style = iota
	StyleBright
	StyleSuccess
	StyleFailure
	StyleWarning
	StyleBrightSuccess
	StyleBrightFailure
	StyleBrightWarning
)

// Console writes styled text to a terminal. Failures are red, successes
// green, skips and diagnostics yellow.
type Console struct {
	out    io.Writer
	styles map[Style]*color.Color
}

// NewConsole creates a console writing to out. Colors follow the terminal
// detection of fatih/color unless noColor is set.
func NewConsole(out io.Writer, noColor bool) *Console {
	styles := map[Style]*color.Color{
		StylePlain:         color.New(color.Reset),
		StyleBright:        color.New(color.Bold),
		StyleSuccess:       color.New(color.FgGreen),
		StyleFailure:       color.New(color.FgRed),
		StyleWarning:       color.New(color.FgYellow),
		StyleBrightSuccess: color.New(color.FgGreen, color.Bold),
		StyleBrightFailure: color.New(color.FgRed, color.Bold),
		StyleBrightWarning: color.New(color.FgYellow, color.Bold),
	}
	if noColor {
		for _, c := range styles {
			c.DisableColor()
		}
	}
	return &Console{out: out, styles: styles}
}

// Write writes text with the given style
func (c *Console) Write(style Style, text string) {
	if style == StylePlain {
		fmt.Fprint(c.out, text)
		return
	}
	c.styles[style].Fprint(c.out, text) //nolint:errcheck
}

// Writef formats and writes text with the given style
func (c *Console) Writef(style Style, format string, args ...any) {
	c.Write(style, fmt.Sprintf(format, args...))
}

// Writeln writes text with the given style followed by an unstyled newline
func (c *Console) Writeln(style Style, text string) {
	c.Write(style, text)
	fmt.Fprintln(c.out)
}

// Out returns the underlying writer for pre-rendered output such as tables
func (c *Console) Out() io.Writer {
	return c.out
}
