package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsole_NoColor(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	c.Write(StyleFailure, "× failed")
	c.Writeln(StylePlain, "")
	c.Writef(StyleBrightSuccess, "%d/%d passed", 3, 3)
	c.Writeln(StyleWarning, " ~")

	want := "× failed\n3/3 passed ~\n"
	if got := buf.String(); got != want {
		t.Errorf("console output = %q, want %q", got, want)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("unexpected escape codes in %q", buf.String())
	}
}

func TestConsole_Out(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)
	if c.Out() != &buf {
		t.Errorf("Out() did not return the underlying writer")
	}
}
