package termcore

// Event is the base interface for all terminal input events.
// Use a type switch to handle specific event types.
type Event interface {
	// isEvent is a marker method to prevent external implementations.
	isEvent()
}

// KeyEvent represents a keyboard input event.
type KeyEvent struct {
	// Key is the key pressed. For printable characters, this is KeyRune.
	// For special keys (arrows, function keys), this is the specific constant.
	Key Key

	// Rune is the character for KeyRune events. Zero for special keys.
	Rune rune

	// Mod contains modifier flags (Ctrl, Alt, Shift).
	Mod Modifier
}

func (KeyEvent) isEvent() {}

// IsRune returns true if this is a printable character event.
func (e KeyEvent) IsRune() bool {
	return e.Key == KeyRune
}

// Is checks if the event matches a specific key with optional modifiers.
// Example: event.Is(KeyEnter) or event.Is(KeyRune, ModCtrl)
func (e KeyEvent) Is(key Key, mods ...Modifier) bool {
	if e.Key != key {
		return false
	}
	if len(mods) == 0 {
		return true
	}
	var combined Modifier
	for _, m := range mods {
		combined |= m
	}
	return e.Mod == combined
}

// Char returns the rune if this is a KeyRune event, or 0 otherwise.
func (e KeyEvent) Char() rune {
	if e.Key == KeyRune {
		return e.Rune
	}
	return 0
}

// ResizeEvent is emitted when the terminal is resized. It is produced by the
// EventReader on SIGWINCH and by the decoder when the terminal sends an
// xterm window-size report (CSI 8 ; rows ; cols t).
type ResizeEvent struct {
	Width  int
	Height int
}

func (ResizeEvent) isEvent() {}

// MouseButton represents which mouse button was involved in an event.
type MouseButton int

const (
	// MouseLeft is the left (primary) mouse button.
	MouseLeft MouseButton = iota
	// MouseMiddle is the middle mouse button (scroll wheel click).
	MouseMiddle
	// MouseRight is the right (secondary) mouse button.
	MouseRight
	// MouseWheelUp is a scroll wheel up event.
	MouseWheelUp
	// MouseWheelDown is a scroll wheel down event.
	MouseWheelDown
	// MouseNone indicates no button (used for motion events).
	MouseNone
)

// String returns a human-readable representation of the button.
func (b MouseButton) String() string {
	switch b {
	case MouseLeft:
		return "Left"
	case MouseMiddle:
		return "Middle"
	case MouseRight:
		return "Right"
	case MouseWheelUp:
		return "WheelUp"
	case MouseWheelDown:
		return "WheelDown"
	case MouseNone:
		return "None"
	}
	return "Unknown"
}

// MouseAction represents what the mouse did.
type MouseAction int

const (
	// MousePress is a button press (or a wheel tick, which is instantaneous).
	MousePress MouseAction = iota
	// MouseRelease is a button release.
	MouseRelease
	// MouseDrag is motion with a button held down.
	MouseDrag
	// MouseMove is motion with no button held down.
	MouseMove
)

// String returns a human-readable representation of the action.
func (a MouseAction) String() string {
	switch a {
	case MousePress:
		return "Press"
	case MouseRelease:
		return "Release"
	case MouseDrag:
		return "Drag"
	case MouseMove:
		return "Move"
	}
	return "Unknown"
}

// MouseEvent represents a mouse input event decoded from a terminal
// mouse report. Coordinates are 0-indexed terminal cells.
type MouseEvent struct {
	X      int
	Y      int
	Button MouseButton
	Action MouseAction
	Mod    Modifier
}

func (MouseEvent) isEvent() {}

// PasteStartEvent marks the beginning of a bracketed paste. All text until
// the matching PasteEndEvent arrived via paste, not typing.
type PasteStartEvent struct{}

func (PasteStartEvent) isEvent() {}

// PasteEvent carries a chunk of pasted text. Large pastes are delivered as
// multiple chunks of at most PasteChunkSize bytes each.
type PasteEvent struct {
	Text string
}

func (PasteEvent) isEvent() {}

// PasteEndEvent marks the end of a bracketed paste.
type PasteEndEvent struct{}

func (PasteEndEvent) isEvent() {}
