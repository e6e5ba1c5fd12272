package termcore

import (
	"io"
	"os"

	"golang.org/x/term"
)

// TerminalAttributes is an opaque snapshot of a terminal's mode settings.
// A Guard captures one before entering raw mode and hands the exact same
// value back to Restore, so restoration reproduces the original state
// byte for byte rather than applying a "known good" default.
type TerminalAttributes interface {
	// attrs keeps the set of implementations closed to this package and
	// its test doubles.
	attrs()
}

// RawMode describes how raw mode is entered.
type RawMode struct {
	// KeepSignals leaves signal generation enabled so Ctrl+C and Ctrl+Z
	// still deliver SIGINT and SIGTSTP instead of arriving as input bytes.
	KeepSignals bool
}

// Tty is the terminal a Guard operates on. The two implementations are
// osTty for a real terminal and MockTty for tests.
type Tty interface {
	io.Writer

	// Capture snapshots the current terminal attributes.
	Capture() (TerminalAttributes, error)

	// MakeRaw switches the terminal into raw mode: no echo, no line
	// buffering, no input translation.
	MakeRaw(mode RawMode) error

	// Restore applies a snapshot previously returned by Capture.
	Restore(attrs TerminalAttributes) error

	// IsTerminal reports whether the underlying descriptor is actually a
	// terminal.
	IsTerminal() bool
}

// osTty is the real-terminal implementation of Tty. The attribute methods
// live in the platform files.
type osTty struct {
	in  *os.File
	out *os.File
}

// Stdio returns the Tty for the process's standard input and output.
func Stdio() Tty {
	return &osTty{in: os.Stdin, out: os.Stdout}
}

// NewOSTty returns a Tty that reads attributes from in and writes escape
// sequences to out.
func NewOSTty(in, out *os.File) Tty {
	return &osTty{in: in, out: out}
}

func (t *osTty) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

func (t *osTty) IsTerminal() bool {
	return term.IsTerminal(int(t.in.Fd()))
}
