//go:build windows

package termcore

import (
	"errors"

	"golang.org/x/sys/windows"
)

// windowsAttributes holds the console mode of both the input and output
// handles.
type windowsAttributes struct {
	inMode  uint32
	outMode uint32
}

func (*windowsAttributes) attrs() {}

func (t *osTty) Capture() (TerminalAttributes, error) {
	var a windowsAttributes
	if err := windows.GetConsoleMode(windows.Handle(t.in.Fd()), &a.inMode); err != nil {
		return nil, &AttributeError{Op: "capture", Err: err}
	}
	if err := windows.GetConsoleMode(windows.Handle(t.out.Fd()), &a.outMode); err != nil {
		return nil, &AttributeError{Op: "capture", Err: err}
	}
	return &a, nil
}

func (t *osTty) MakeRaw(mode RawMode) error {
	inHandle := windows.Handle(t.in.Fd())
	outHandle := windows.Handle(t.out.Fd())

	var inMode uint32
	if err := windows.GetConsoleMode(inHandle, &inMode); err != nil {
		return &AttributeError{Op: "apply", Err: err}
	}
	raw := inMode &^ (windows.ENABLE_ECHO_INPUT | windows.ENABLE_LINE_INPUT | windows.ENABLE_PROCESSED_INPUT)
	if mode.KeepSignals {
		// ENABLE_PROCESSED_INPUT is what turns Ctrl+C into a signal on
		// Windows.
		raw |= windows.ENABLE_PROCESSED_INPUT
	}
	raw |= windows.ENABLE_VIRTUAL_TERMINAL_INPUT
	if err := windows.SetConsoleMode(inHandle, raw); err != nil {
		return &AttributeError{Op: "apply", Err: err}
	}

	var outMode uint32
	if err := windows.GetConsoleMode(outHandle, &outMode); err != nil {
		// The input handle is already raw; put it back before failing.
		windows.SetConsoleMode(inHandle, inMode)
		return &AttributeError{Op: "apply", Err: err}
	}
	outMode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING | windows.DISABLE_NEWLINE_AUTO_RETURN
	if err := windows.SetConsoleMode(outHandle, outMode); err != nil {
		windows.SetConsoleMode(inHandle, inMode)
		return &AttributeError{Op: "apply", Err: err}
	}
	return nil
}

func (t *osTty) Restore(attrs TerminalAttributes) error {
	wa, ok := attrs.(*windowsAttributes)
	if !ok {
		return &AttributeError{Op: "restore", Err: errors.New("attributes were not captured from this terminal")}
	}
	if err := windows.SetConsoleMode(windows.Handle(t.in.Fd()), wa.inMode); err != nil {
		return &AttributeError{Op: "restore", Err: err}
	}
	if err := windows.SetConsoleMode(windows.Handle(t.out.Fd()), wa.outMode); err != nil {
		return &AttributeError{Op: "restore", Err: err}
	}
	return nil
}
