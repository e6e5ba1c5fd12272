//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package termcore

import (
	"context"
	"io"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// Run reads input until ctx ends, the input reaches EOF, or a read fails.
// It multiplexes the terminal against a self-pipe with select(2): the pipe
// wakes the loop for context cancellation and window-size changes, and the
// select timeout fires the escape disambiguation when the decoder is
// holding a pending sequence. The events channel is closed on return.
func (r *EventReader) Run(ctx context.Context) error {
	defer close(r.events)

	var pipe [2]int
	if err := unix.Pipe(pipe[:]); err != nil {
		return err
	}
	defer unix.Close(pipe[0])
	defer unix.Close(pipe[1])

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, unix.SIGWINCH)
	defer signal.Stop(winch)

	// A byte on the pipe breaks the select below.
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-ctx.Done():
				unix.Write(pipe[1], []byte{0})
				return
			case <-winch:
				unix.Write(pipe[1], []byte{0})
			case <-done:
				return
			}
		}
	}()

	// Report the starting size so consumers can lay out before the first
	// keystroke.
	if ev, ok := r.windowSize(); ok {
		if !r.emit(ctx, []Event{ev}) {
			return ctx.Err()
		}
	}

	fd := int(r.in.Fd())
	maxfd := fd
	if pipe[0] > maxfd {
		maxfd = pipe[0]
	}
	buf := make([]byte, 4096)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var tv *unix.Timeval
		if r.dec.Pending() {
			t := unix.NsecToTimeval(int64(escapeTimeout))
			tv = &t
		}

		var rfds unix.FdSet
		rfds.Zero()
		rfds.Set(fd)
		rfds.Set(pipe[0])

		n, err := unix.Select(maxfd+1, &rfds, nil, nil, tv)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n == 0 {
			// Timeout: the pending escape was a bare Escape key.
			if !r.emit(ctx, r.dec.ExpireEscape()) {
				return ctx.Err()
			}
			continue
		}

		if rfds.IsSet(pipe[0]) {
			var drain [64]byte
			unix.Read(pipe[0], drain[:])
			if err := ctx.Err(); err != nil {
				return err
			}
			if ev, ok := r.windowSize(); ok {
				if !r.emit(ctx, []Event{ev}) {
					return ctx.Err()
				}
			}
		}

		if rfds.IsSet(fd) {
			nr, err := unix.Read(fd, buf)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				return err
			}
			if nr == 0 {
				return io.EOF
			}
			if !r.emit(ctx, r.dec.Feed(buf[:nr])) {
				return ctx.Err()
			}
		}
	}
}

// windowSize queries the terminal size, reporting ok=false when the input
// is not a terminal.
func (r *EventReader) windowSize() (ResizeEvent, bool) {
	ws, err := unix.IoctlGetWinsize(int(r.in.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return ResizeEvent{}, false
	}
	return ResizeEvent{Width: int(ws.Col), Height: int(ws.Row)}, true
}
