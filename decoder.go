package termcore

import (
	"bytes"
	"unicode/utf8"
)

// PasteChunkSize is the maximum number of bytes delivered in a single
// PasteEvent. Large pastes are split so a caller never has to buffer an
// unbounded paste in one event.
const PasteChunkSize = 1024

// maxCSILen bounds how many bytes the decoder will collect for a single
// CSI or mouse sequence before giving up and reinterpreting the bytes as
// literal input.
const maxCSILen = 32

// decodeState is the decoder's position in the escape-sequence grammar.
type decodeState uint8

const (
	// stateGround: no sequence in progress.
	stateGround decodeState = iota
	// stateEscape: an escape byte was seen, waiting to classify the sequence.
	stateEscape
	// stateCSI: collecting a CSI or mouse sequence.
	stateCSI
	// statePaste: inside a bracketed paste, accumulating text.
	statePaste
)

// Decoder is a streaming state machine that turns raw terminal input bytes
// into structured events. Feed it byte chunks as they arrive; state
// persists across calls, so a chunk boundary may fall anywhere, including
// the middle of an escape sequence or a multi-byte character.
//
// The decoder performs no I/O and never blocks. Time is the caller's
// concern: when Pending reports a buffered escape sequence that may still
// complete, the caller should call ExpireEscape after a short timeout to
// resolve it as a bare Escape key press (see EventReader for a host loop
// that does this).
//
// Malformed or unknown input is never dropped: anything that fails to
// decode as a recognized sequence is delivered as literal key events.
type Decoder struct {
	keymap   *KeyMap
	pasteEnd []byte

	state decodeState
	buf   []byte
}

// NewDecoder creates a decoder using the key table and paste markers for
// the given capabilities. A nil caps resolves the current terminal.
func NewDecoder(caps *Capabilities) *Decoder {
	if caps == nil {
		caps = CurrentCapabilities()
	}
	return &Decoder{
		keymap:   NewKeyMap(caps),
		pasteEnd: []byte(caps.PasteEnd()),
		buf:      make([]byte, 0, 256),
	}
}

// Feed appends raw input bytes and returns all events that can be decoded
// so far. Bytes that might still grow into a longer sequence stay buffered
// until more input arrives or ExpireEscape is called.
func (d *Decoder) Feed(p []byte) []Event {
	if len(p) > 0 {
		d.buf = append(d.buf, p...)
	}
	return d.drain(nil)
}

// Pending reports whether the decoder is holding an incomplete escape
// sequence that a timeout should resolve. It is false while collecting
// paste text or a partial multi-byte character, since those are completed
// by more input, not by time.
func (d *Decoder) Pending() bool {
	return (d.state == stateEscape || d.state == stateCSI) && len(d.buf) > 0
}

// ExpireEscape resolves a pending escape sequence after the caller's
// disambiguation timeout has elapsed: the buffered escape byte is delivered
// as a bare Escape key press and the remaining buffered bytes are decoded
// again from the ground state. Returns nil when nothing is pending.
func (d *Decoder) ExpireEscape() []Event {
	if !d.Pending() {
		return nil
	}
	d.state = stateGround

	// A buffer held back only because a longer entry was still possible
	// resolves to its complete match now that the wait is over.
	if e, n, ok := d.keymap.Lookup(d.buf); ok && n == len(d.buf) {
		d.consume(n)
		switch e.Key {
		case keyPasteStart:
			d.state = statePaste
			return []Event{PasteStartEvent{}}
		case keyPasteEnd:
			return literalEvents([]byte(e.Seq))
		default:
			return []Event{KeyEvent{Key: e.Key, Mod: e.Mod}}
		}
	}

	events := []Event{KeyEvent{Key: KeyEscape}}
	d.consume(1)
	return d.drain(events)
}

// drain decodes as much of the buffer as possible, appending to events.
func (d *Decoder) drain(events []Event) []Event {
	for len(d.buf) > 0 {
		if d.state == statePaste {
			var progressed bool
			events, progressed = d.drainPaste(events)
			if !progressed {
				break
			}
			continue
		}

		n, evs, complete := d.decodeNext(d.buf)
		if !complete {
			break
		}
		events = append(events, evs...)
		d.consume(n)
	}
	return events
}

// consume drops the first n buffered bytes.
func (d *Decoder) consume(n int) {
	if n >= len(d.buf) {
		d.buf = d.buf[:0]
		return
	}
	d.buf = append(d.buf[:0], d.buf[n:]...)
}

// decodeNext decodes one event's worth of bytes from data. It returns the
// number of bytes consumed, the events produced, and whether decoding made
// progress; complete=false means the buffered bytes are an incomplete
// sequence and more input is needed.
func (d *Decoder) decodeNext(data []byte) (consumed int, events []Event, complete bool) {
	b := data[0]

	if b == 0x1b {
		return d.decodeEscape(data)
	}

	d.state = stateGround

	if b < 0x20 {
		return 1, []Event{KeyEvent{Key: controlToKey(b)}}, true
	}
	// DEL is backspace on most terminals.
	if b == 0x7f {
		return 1, []Event{KeyEvent{Key: KeyBackspace}}, true
	}
	if b < 0x80 {
		return 1, []Event{KeyEvent{Key: KeyRune, Rune: rune(b)}}, true
	}

	// Multi-byte UTF-8. A chunk boundary may fall inside the sequence.
	need := utf8SeqLen(b)
	if need == 0 {
		return 1, []Event{KeyEvent{Key: KeyRune, Rune: utf8.RuneError}}, true
	}
	if len(data) < need {
		return 0, nil, false
	}
	r, size := utf8.DecodeRune(data)
	return size, []Event{KeyEvent{Key: KeyRune, Rune: r}}, true
}

// decodeEscape handles a buffer that starts with the escape byte.
func (d *Decoder) decodeEscape(data []byte) (int, []Event, bool) {
	// Longest-match lookup against the key table first: database entries
	// win over structural interpretation.
	if e, n, ok := d.keymap.Lookup(data); ok {
		// A buffer that is a complete entry but also a strict prefix of a
		// longer one is still ambiguous: hold it for more input or the
		// timeout, so the longest match wins.
		if n == len(data) && d.keymap.HasPrefix(data) {
			if len(data) == 1 {
				d.state = stateEscape
			} else {
				d.state = stateCSI
			}
			return 0, nil, false
		}
		switch e.Key {
		case keyPasteStart:
			d.state = statePaste
			return n, []Event{PasteStartEvent{}}, true
		case keyPasteEnd:
			// Stray end marker outside a paste; deliver it literally.
			d.state = stateGround
			return n, literalEvents(data[:n]), true
		default:
			d.state = stateGround
			return n, []Event{KeyEvent{Key: e.Key, Mod: e.Mod}}, true
		}
	}

	// The buffer is a strict prefix of a table entry: wait for more input
	// (or for the caller's timeout).
	if d.keymap.HasPrefix(data) {
		if len(data) == 1 {
			d.state = stateEscape
		} else {
			d.state = stateCSI
		}
		return 0, nil, false
	}

	if len(data) == 1 {
		d.state = stateEscape
		return 0, nil, false
	}

	switch data[1] {
	case 0x1b:
		d.state = stateGround
		return 2, []Event{KeyEvent{Key: KeyEscape, Mod: ModAlt}}, true
	case '[':
		return d.decodeCSI(data)
	case 'O':
		return d.decodeSS3(data)
	}

	// Alt+key: escape followed by an ordinary byte.
	d.state = stateGround
	nb := data[1]
	switch {
	case nb < 0x20:
		return 2, []Event{KeyEvent{Key: controlToKey(nb), Mod: ModAlt}}, true
	case nb == 0x7f:
		return 2, []Event{KeyEvent{Key: KeyBackspace, Mod: ModAlt}}, true
	case nb < 0x80:
		return 2, []Event{KeyEvent{Key: KeyRune, Rune: rune(nb), Mod: ModAlt}}, true
	}

	// Alt + multi-byte rune.
	need := utf8SeqLen(nb)
	if need == 0 {
		return 2, []Event{KeyEvent{Key: KeyRune, Rune: utf8.RuneError, Mod: ModAlt}}, true
	}
	if len(data) < 1+need {
		d.state = stateEscape
		return 0, nil, false
	}
	r, size := utf8.DecodeRune(data[1:])
	return 1 + size, []Event{KeyEvent{Key: KeyRune, Rune: r, Mod: ModAlt}}, true
}

// decodeCSI handles ESC [ sequences that did not match the key table:
// mouse reports, modified keys, window-size reports, and unknown CSI.
func (d *Decoder) decodeCSI(data []byte) (int, []Event, bool) {
	if len(data) == 2 {
		d.state = stateCSI
		return 0, nil, false
	}
	if data[2] == '<' {
		return d.decodeSGRMouse(data)
	}
	if data[2] == 'M' {
		return d.decodeX10Mouse(data)
	}

	var params []int
	cur := 0
	hasCur := false

	for i := 2; i < len(data); i++ {
		b := data[i]
		switch {
		case b >= '0' && b <= '9':
			cur = cur*10 + int(b-'0')
			hasCur = true
		case b == ';':
			params = append(params, cur)
			cur, hasCur = 0, false
		case b >= 0x40 && b <= 0x7e:
			// Final byte.
			if hasCur {
				params = append(params, cur)
			}
			d.state = stateGround
			return i + 1, d.csiEvents(data[:i+1], params, b), true
		default:
			// Not valid inside a CSI sequence: fail soft, deliver what was
			// buffered as literal input and re-decode from the bad byte.
			d.state = stateGround
			return i, literalEvents(data[:i]), true
		}
		if i-1 > maxCSILen {
			d.state = stateGround
			return i + 1, literalEvents(data[:i+1]), true
		}
	}

	d.state = stateCSI
	return 0, nil, false
}

// csiEvents interprets a complete CSI sequence. raw is the full byte
// sequence including the introducer and final byte, used for the literal
// fallback when the sequence is not recognized.
func (d *Decoder) csiEvents(raw []byte, params []int, final byte) []Event {
	// xterm window-size report: CSI 8 ; rows ; cols t
	if final == 't' && len(params) >= 3 && params[0] == 8 {
		return []Event{ResizeEvent{Width: params[2], Height: params[1]}}
	}

	key, mod := csiKey(params, final)
	if key != KeyNone {
		return []Event{KeyEvent{Key: key, Mod: mod}}
	}
	return literalEvents(raw)
}

// csiKey maps a CSI sequence's parameters and final byte to a key.
func csiKey(params []int, final byte) (Key, Modifier) {
	mod := ModNone
	// xterm encodes modifiers in the second parameter: CSI 1 ; m X
	if len(params) >= 2 {
		mod = decodeModifierParam(params[1])
	}

	switch final {
	case 'A':
		return KeyUp, mod
	case 'B':
		return KeyDown, mod
	case 'C':
		return KeyRight, mod
	case 'D':
		return KeyLeft, mod
	case 'H':
		return KeyHome, mod
	case 'F':
		return KeyEnd, mod
	case 'P':
		return KeyF1, mod
	case 'Q':
		return KeyF2, mod
	case 'R':
		return KeyF3, mod
	case 'S':
		return KeyF4, mod
	case 'Z':
		return KeyTab, ModShift
	case '~':
		if len(params) == 0 {
			return KeyNone, ModNone
		}
		switch params[0] {
		case 1:
			return KeyHome, mod
		case 2:
			return KeyInsert, mod
		case 3:
			return KeyDelete, mod
		case 4:
			return KeyEnd, mod
		case 5:
			return KeyPageUp, mod
		case 6:
			return KeyPageDown, mod
		case 11:
			return KeyF1, mod
		case 12:
			return KeyF2, mod
		case 13:
			return KeyF3, mod
		case 14:
			return KeyF4, mod
		case 15:
			return KeyF5, mod
		case 17:
			return KeyF6, mod
		case 18:
			return KeyF7, mod
		case 19:
			return KeyF8, mod
		case 20:
			return KeyF9, mod
		case 21:
			return KeyF10, mod
		case 23:
			return KeyF11, mod
		case 24:
			return KeyF12, mod
		}
	}
	return KeyNone, ModNone
}

// decodeSS3 handles ESC O sequences that did not match the key table.
func (d *Decoder) decodeSS3(data []byte) (int, []Event, bool) {
	if len(data) < 3 {
		d.state = stateEscape
		return 0, nil, false
	}
	d.state = stateGround
	if key := ss3Key(data[2]); key != KeyNone {
		return 3, []Event{KeyEvent{Key: key}}, true
	}
	return 3, literalEvents(data[:3]), true
}

// ss3Key maps an SS3 final byte to a key.
func ss3Key(b byte) Key {
	switch b {
	case 'P':
		return KeyF1
	case 'Q':
		return KeyF2
	case 'R':
		return KeyF3
	case 'S':
		return KeyF4
	case 'A':
		return KeyUp
	case 'B':
		return KeyDown
	case 'C':
		return KeyRight
	case 'D':
		return KeyLeft
	case 'H':
		return KeyHome
	case 'F':
		return KeyEnd
	}
	return KeyNone
}

// decodeSGRMouse parses an SGR-1006 mouse report:
// ESC [ < button ; x ; y M (press) or m (release).
func (d *Decoder) decodeSGRMouse(data []byte) (int, []Event, bool) {
	end := 3
	for ; end < len(data); end++ {
		b := data[end]
		if b == 'M' || b == 'm' {
			break
		}
		if (b < '0' || b > '9') && b != ';' {
			d.state = stateGround
			return end, literalEvents(data[:end]), true
		}
		if end > maxCSILen {
			d.state = stateGround
			return end, literalEvents(data[:end]), true
		}
	}
	if end >= len(data) {
		d.state = stateCSI
		return 0, nil, false
	}

	btn, x, y, ok := parseSGRParams(data[3:end])
	if !ok {
		d.state = stateGround
		return end + 1, literalEvents(data[:end+1]), true
	}

	d.state = stateGround
	ev := mouseEventFromButton(btn, x-1, y-1, data[end] == 'M')
	return end + 1, []Event{ev}, true
}

// parseSGRParams extracts button, x, y from "btn;x;y".
func parseSGRParams(data []byte) (btn, x, y int, ok bool) {
	stage := 0
	val := 0
	for _, b := range data {
		if b == ';' {
			switch stage {
			case 0:
				btn = val
			case 1:
				x = val
			default:
				return 0, 0, 0, false
			}
			stage++
			val = 0
			continue
		}
		val = val*10 + int(b-'0')
		if val > 9999 {
			return 0, 0, 0, false
		}
	}
	if stage != 2 {
		return 0, 0, 0, false
	}
	y = val
	return btn, x, y, true
}

// decodeX10Mouse parses a legacy X10 mouse report: ESC [ M b x y, a fixed
// six-byte sequence with coordinates offset by 32.
func (d *Decoder) decodeX10Mouse(data []byte) (int, []Event, bool) {
	if len(data) < 6 {
		d.state = stateCSI
		return 0, nil, false
	}
	d.state = stateGround

	btn := int(data[3]) - 32
	x := int(data[4]) - 33
	y := int(data[5]) - 33

	// X10 encodes release as button value 3 rather than a distinct final
	// byte; everything else matches the SGR button encoding.
	press := btn&3 != 3 || btn&64 != 0
	return 6, []Event{mouseEventFromButton(btn, x, y, press)}, true
}

// mouseEventFromButton decodes the shared button encoding of the SGR and
// X10 schemes:
//
//	bits 0-1: button (0=left, 1=middle, 2=right, 3=release/none)
//	bit 2: shift, bit 3: meta/alt, bit 4: ctrl
//	bit 5: motion (drag/move)
//	bit 6: wheel (0=up, 1=down)
func mouseEventFromButton(btn, x, y int, press bool) MouseEvent {
	ev := MouseEvent{X: x, Y: y}

	if btn&4 != 0 {
		ev.Mod |= ModShift
	}
	if btn&8 != 0 {
		ev.Mod |= ModAlt
	}
	if btn&16 != 0 {
		ev.Mod |= ModCtrl
	}

	if btn&64 != 0 {
		if btn&1 != 0 {
			ev.Button = MouseWheelDown
		} else {
			ev.Button = MouseWheelUp
		}
		ev.Action = MousePress // wheel ticks are instantaneous
		return ev
	}

	switch btn & 3 {
	case 0:
		ev.Button = MouseLeft
	case 1:
		ev.Button = MouseMiddle
	case 2:
		ev.Button = MouseRight
	case 3:
		ev.Button = MouseNone
	}

	switch {
	case btn&32 != 0 && ev.Button != MouseNone:
		ev.Action = MouseDrag
	case btn&32 != 0:
		ev.Action = MouseMove
	case press:
		ev.Action = MousePress
	default:
		ev.Action = MouseRelease
	}
	return ev
}

// drainPaste consumes buffered paste text, emitting chunks and the end
// event when the end marker is found. It reports whether any progress was
// made; no progress means the buffer might still be a partial end marker
// and more input is needed.
func (d *Decoder) drainPaste(events []Event) ([]Event, bool) {
	if idx := bytes.Index(d.buf, d.pasteEnd); idx >= 0 {
		events = appendPasteChunks(events, d.buf[:idx])
		events = append(events, PasteEndEvent{})
		d.consume(idx + len(d.pasteEnd))
		d.state = stateGround
		return events, true
	}

	// No end marker yet. Everything except a possible partial marker at the
	// tail is definitely paste text and can be delivered now.
	keep := markerOverlap(d.buf, d.pasteEnd)
	safe := len(d.buf) - keep
	if safe == 0 {
		return events, false
	}
	events = appendPasteChunks(events, d.buf[:safe])
	d.consume(safe)
	return events, false
}

// appendPasteChunks splits text into PasteEvents of at most PasteChunkSize
// bytes each.
func appendPasteChunks(events []Event, text []byte) []Event {
	for len(text) > PasteChunkSize {
		events = append(events, PasteEvent{Text: string(text[:PasteChunkSize])})
		text = text[PasteChunkSize:]
	}
	if len(text) > 0 {
		events = append(events, PasteEvent{Text: string(text)})
	}
	return events
}

// markerOverlap returns the length of the longest strict prefix of marker
// that is a suffix of buf.
func markerOverlap(buf, marker []byte) int {
	max := len(marker) - 1
	if max > len(buf) {
		max = len(buf)
	}
	for n := max; n > 0; n-- {
		if bytes.HasSuffix(buf, marker[:n]) {
			return n
		}
	}
	return 0
}

// literalEvents reinterprets raw bytes as literal input: escape bytes
// become bare Escape key presses, controls map to their control keys, and
// everything else decodes as runes. Used on the fail-soft paths so unknown
// input is never dropped silently.
func literalEvents(data []byte) []Event {
	var events []Event
	for i := 0; i < len(data); {
		b := data[i]
		switch {
		case b == 0x1b:
			events = append(events, KeyEvent{Key: KeyEscape})
			i++
		case b < 0x20:
			events = append(events, KeyEvent{Key: controlToKey(b)})
			i++
		case b == 0x7f:
			events = append(events, KeyEvent{Key: KeyBackspace})
			i++
		default:
			r, size := utf8.DecodeRune(data[i:])
			events = append(events, KeyEvent{Key: KeyRune, Rune: r})
			i += size
		}
	}
	return events
}

// controlToKey converts a control character (0x00-0x1F) to a Key.
func controlToKey(b byte) Key {
	switch b {
	case 0x00: // Ctrl+Space or Ctrl+@
		return KeyCtrlSpace
	case 0x08: // Ctrl+H is backspace on some terminals
		return KeyBackspace
	case 0x09: // Ctrl+I
		return KeyTab
	case 0x0d: // Ctrl+M
		return KeyEnter
	case 0x1b:
		return KeyEscape
	case 0x1c:
		return KeyCtrlBackslash
	case 0x1d:
		return KeyCtrlRightBracket
	case 0x1e:
		return KeyCtrlCaret
	case 0x1f:
		return KeyCtrlUnderscore
	}
	if b >= 0x01 && b <= 0x1a {
		return KeyCtrlA + Key(b-0x01)
	}
	return KeyNone
}

// utf8SeqLen returns the expected UTF-8 sequence length for a leading
// byte, or 0 if the byte cannot start a sequence.
func utf8SeqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b&0xe0 == 0xc0:
		return 2
	case b&0xf0 == 0xe0:
		return 3
	case b&0xf8 == 0xf0:
		return 4
	}
	return 0
}
