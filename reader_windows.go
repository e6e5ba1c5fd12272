//go:build windows

package termcore

import (
	"context"
	"io"
	"time"

	"golang.org/x/term"
)

// sizePollInterval is how often the Windows reader checks for console
// resizes; there is no SIGWINCH equivalent it can subscribe to here.
const sizePollInterval = 500 * time.Millisecond

// Run reads input until ctx ends, the input reaches EOF, or a read fails.
// A background goroutine performs the blocking reads so the loop can react
// to cancellation, the escape disambiguation timeout, and console resizes.
// The events channel is closed on return.
func (r *EventReader) Run(ctx context.Context) error {
	defer close(r.events)

	type chunk struct {
		data []byte
		err  error
	}
	reads := make(chan chunk)
	go func() {
		defer close(reads)
		for {
			buf := make([]byte, 4096)
			n, err := r.in.Read(buf)
			select {
			case reads <- chunk{data: buf[:n], err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	fd := int(r.in.Fd())
	lastW, lastH := -1, -1
	if w, h, err := term.GetSize(fd); err == nil {
		lastW, lastH = w, h
		if !r.emit(ctx, []Event{ResizeEvent{Width: w, Height: h}}) {
			return ctx.Err()
		}
	}

	sizeTick := time.NewTicker(sizePollInterval)
	defer sizeTick.Stop()

	for {
		var timeout <-chan time.Time
		if r.dec.Pending() {
			timeout = time.After(escapeTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case c, ok := <-reads:
			if !ok {
				return io.EOF
			}
			if len(c.data) > 0 {
				if !r.emit(ctx, r.dec.Feed(c.data)) {
					return ctx.Err()
				}
			}
			if c.err != nil {
				return c.err
			}

		case <-timeout:
			if !r.emit(ctx, r.dec.ExpireEscape()) {
				return ctx.Err()
			}

		case <-sizeTick.C:
			w, h, err := term.GetSize(fd)
			if err != nil || (w == lastW && h == lastH) {
				continue
			}
			lastW, lastH = w, h
			if !r.emit(ctx, []Event{ResizeEvent{Width: w, Height: h}}) {
				return ctx.Err()
			}
		}
	}
}
