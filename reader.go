package termcore

import (
	"context"
	"os"
	"time"
)

// escapeTimeout is how long a lone escape byte may sit buffered before it
// is resolved as a bare Escape key press. Terminals deliver complete
// sequences in one burst, so anything still ambiguous after this long is
// the user hitting the Escape key.
const escapeTimeout = 50 * time.Millisecond

// EventReader pumps terminal input through a Decoder and delivers the
// resulting events on a channel, handling the escape disambiguation
// timeout and window-size changes. It is the host loop most callers want;
// callers with their own I/O loop can drive a Decoder directly.
type EventReader struct {
	in     *os.File
	dec    *Decoder
	events chan Event
}

// NewEventReader creates a reader for the given input file using the key
// table for caps. A nil caps resolves the current terminal.
func NewEventReader(in *os.File, caps *Capabilities) *EventReader {
	return &EventReader{
		in:     in,
		dec:    NewDecoder(caps),
		events: make(chan Event, 32),
	}
}

// Events returns the channel decoded events are delivered on. It is
// closed when Run returns.
func (r *EventReader) Events() <-chan Event {
	return r.events
}

// emit delivers events, giving up when ctx ends so a stalled consumer
// cannot wedge shutdown. Returns false once ctx is done.
func (r *EventReader) emit(ctx context.Context, events []Event) bool {
	for _, ev := range events {
		select {
		case r.events <- ev:
		case <-ctx.Done():
			return false
		}
	}
	return true
}
