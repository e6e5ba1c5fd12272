package termcore

import "io"

// emergencyResetSeq undoes every mode this package can turn on, plus
// cursor visibility and SGR attributes, without knowing what was actually
// enabled. Disabling a mode that was never on is harmless.
const emergencyResetSeq = "\x1b[?1006l\x1b[?1003l\x1b[?1002l\x1b[?1000l" + // mouse reporting
	"\x1b[?2004l" + // bracketed paste
	"\x1b[?1049l" + // alternate screen
	"\x1b[?25h" + // cursor visible
	"\x1b[0m" // attributes

// EmergencyRestore writes a blanket terminal reset. It is meant for crash
// handlers and panic recovery where no Guard survives to do an orderly
// Release. It cannot leave raw mode (that requires the saved attributes),
// so prefer Guard.Release whenever a guard is still reachable.
func EmergencyRestore(w io.Writer) error {
	_, err := io.WriteString(w, emergencyResetSeq)
	return err
}
