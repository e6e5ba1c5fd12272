package termcore

import (
	"errors"
	"strings"
	"testing"
)

func TestEmergencyRestore(t *testing.T) {
	tty := NewMockTty()
	if err := EmergencyRestore(tty); err != nil {
		t.Fatalf("EmergencyRestore: %v", err)
	}
	out := tty.Output()
	for _, seq := range []string{
		"\x1b[?1000l", // mouse
		"\x1b[?2004l", // bracketed paste
		"\x1b[?1049l", // alternate screen
		"\x1b[?25h",   // cursor
		"\x1b[0m",     // attributes
	} {
		if !strings.Contains(out, seq) {
			t.Errorf("reset output missing %q", seq)
		}
	}
}

func TestEmergencyRestoreWriteError(t *testing.T) {
	tty := NewMockTty()
	boom := errors.New("closed")
	tty.FailWrites(boom)
	if err := EmergencyRestore(tty); !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
}
