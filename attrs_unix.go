//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package termcore

import (
	"errors"

	"golang.org/x/sys/unix"
)

// unixAttributes holds a full termios snapshot.
type unixAttributes struct {
	termios unix.Termios
}

func (*unixAttributes) attrs() {}

func (t *osTty) Capture() (TerminalAttributes, error) {
	tio, err := unix.IoctlGetTermios(int(t.in.Fd()), ioctlReadTermios)
	if err != nil {
		return nil, &AttributeError{Op: "capture", Err: err}
	}
	return &unixAttributes{termios: *tio}, nil
}

func (t *osTty) MakeRaw(mode RawMode) error {
	fd := int(t.in.Fd())
	tio, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return &AttributeError{Op: "apply", Err: err}
	}

	raw := *tio
	raw.Iflag &^= unix.IXON | unix.ICRNL | unix.BRKINT | unix.INPCK | unix.ISTRIP
	raw.Oflag &^= unix.OPOST
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN
	if !mode.KeepSignals {
		raw.Lflag &^= unix.ISIG
	}
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &raw); err != nil {
		return &AttributeError{Op: "apply", Err: err}
	}
	return nil
}

func (t *osTty) Restore(attrs TerminalAttributes) error {
	ua, ok := attrs.(*unixAttributes)
	if !ok {
		return &AttributeError{Op: "restore", Err: errors.New("attributes were not captured from this terminal")}
	}
	tio := ua.termios
	if err := unix.IoctlSetTermios(int(t.in.Fd()), ioctlWriteTermios, &tio); err != nil {
		return &AttributeError{Op: "restore", Err: err}
	}
	return nil
}
