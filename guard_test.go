package termcore

import (
	"errors"
	"strings"
	"testing"
)

func acquireForTest(t *testing.T, cfg Config, opts ...GuardOption) *Guard {
	t.Helper()
	g, err := Acquire(cfg, opts...)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	t.Cleanup(g.Release)
	return g
}

func TestGuardAcquireRelease(t *testing.T) {
	tty := NewMockTty()
	caps := LookupCapabilities("")
	startState := tty.State()

	g := acquireForTest(t, Config{Raw: true, Mouse: true, BracketedPaste: true},
		WithTty(tty), WithCapabilities(caps))

	if !tty.IsRaw() {
		t.Fatal("terminal should be in raw mode")
	}
	out := tty.Output()
	if !strings.Contains(out, caps.EnableSequence(FeatureMouse)) {
		t.Error("mouse enable sequence not written")
	}
	if !strings.Contains(out, caps.EnableSequence(FeatureBracketedPaste)) {
		t.Error("paste enable sequence not written")
	}
	if strings.Contains(out, caps.EnableSequence(FeatureAltScreen)) {
		t.Error("alt screen was not requested but was enabled")
	}

	tty.ResetOutput()
	g.Release()

	if tty.IsRaw() {
		t.Fatal("raw mode not restored")
	}
	if tty.State() != startState {
		t.Fatal("attributes after release differ from the captured snapshot")
	}
	out = tty.Output()
	if !strings.Contains(out, caps.DisableSequence(FeatureMouse)) {
		t.Error("mouse disable sequence not written")
	}
	if !strings.Contains(out, caps.DisableSequence(FeatureBracketedPaste)) {
		t.Error("paste disable sequence not written")
	}
	if !g.Released() {
		t.Fatal("Released should report true")
	}
	if err := g.ReleaseErr(); err != nil {
		t.Fatalf("clean release reported error: %v", err)
	}
}

func TestGuardReleaseDisablesDespiteCallerToggles(t *testing.T) {
	tty := NewMockTty()
	caps := LookupCapabilities("")

	g := acquireForTest(t, Config{Raw: true, Mouse: true},
		WithTty(tty), WithCapabilities(caps))

	// The caller turns the feature off through the stack. The terminal may
	// have been re-enabled out of band since (a child process, an escape
	// written directly), so teardown must still write the disable sequence
	// for everything the guard enabled.
	if err := g.Features().Disable(FeatureMouse); err != nil {
		t.Fatalf("caller disable: %v", err)
	}
	tty.ResetOutput()
	g.Release()

	if !strings.Contains(tty.Output(), caps.DisableSequence(FeatureMouse)) {
		t.Fatal("release skipped disabling a guard-enabled feature")
	}
}

func TestGuardRestoresWhenMakeRawFails(t *testing.T) {
	tty := NewMockTty()
	startState := tty.State()
	tty.FailMakeRaw(errors.New("ioctl failed"))

	if _, err := Acquire(Config{Raw: true}, WithTty(tty)); err == nil {
		t.Fatal("expected acquire to fail")
	}
	// The mock mutates its attributes even on a failed MakeRaw; the failed
	// acquire must have put the snapshot back.
	if tty.Restores() != 1 {
		t.Fatalf("restores = %d, want 1", tty.Restores())
	}
	if tty.State() != startState {
		t.Fatal("attributes after failed acquire differ from the snapshot")
	}

	g, err := Acquire(Config{}, WithTty(NewMockTty()))
	if err != nil {
		t.Fatalf("acquire after failure: %v", err)
	}
	g.Release()
}

func TestGuardReleaseIdempotent(t *testing.T) {
	tty := NewMockTty()
	g := acquireForTest(t, Config{Raw: true}, WithTty(tty))

	g.Release()
	if tty.Restores() != 1 {
		t.Fatalf("restores = %d, want 1", tty.Restores())
	}
	g.Release()
	g.Release()
	if tty.Restores() != 1 {
		t.Fatalf("restores after repeat releases = %d, want 1", tty.Restores())
	}
}

func TestGuardConflict(t *testing.T) {
	first := acquireForTest(t, Config{}, WithTty(NewMockTty()))

	if _, err := Acquire(Config{}, WithTty(NewMockTty())); !errors.Is(err, ErrGuardConflict) {
		t.Fatalf("second acquire: got %v, want ErrGuardConflict", err)
	}

	first.Release()
	g, err := Acquire(Config{}, WithTty(NewMockTty()))
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	g.Release()
}

func TestGuardNotATerminal(t *testing.T) {
	tty := NewMockTty()
	tty.SetTerminal(false)

	if _, err := Acquire(Config{Raw: true}, WithTty(tty)); !errors.Is(err, ErrNotATerminal) {
		t.Fatalf("got %v, want ErrNotATerminal", err)
	}

	// The failed acquire must not leave the conflict lock held.
	g, err := Acquire(Config{}, WithTty(NewMockTty()))
	if err != nil {
		t.Fatalf("acquire after failure: %v", err)
	}
	g.Release()
}

func TestGuardUnsupportedFeatureIsRecorded(t *testing.T) {
	caps := LookupCapabilities("vt100")
	if caps.Fallback {
		t.Skip("vt100 missing from the compiled-in terminfo set")
	}
	tty := NewMockTty()

	g := acquireForTest(t, Config{Raw: true, Mouse: true},
		WithTty(tty), WithCapabilities(caps))

	if !g.Unsupported().Has(FeatureMouse) {
		t.Fatal("mouse should be recorded as unsupported")
	}
	if g.Features().Enabled(FeatureMouse) {
		t.Fatal("unsupported feature must not be enabled")
	}
	if !tty.IsRaw() {
		t.Fatal("raw mode should still have been applied")
	}
}

func TestGuardUnwindsOnFeatureFailure(t *testing.T) {
	tty := NewMockTty()
	tty.FailWrites(errors.New("broken pipe"))

	_, err := Acquire(Config{Raw: true, Mouse: true}, WithTty(tty))
	if err == nil {
		t.Fatal("expected acquire to fail")
	}
	var werr *FeatureWriteError
	if !errors.As(err, &werr) {
		t.Fatalf("got %T, want *FeatureWriteError", err)
	}
	if tty.IsRaw() {
		t.Fatal("raw mode not unwound after failure")
	}
	if tty.Restores() != 1 {
		t.Fatalf("restores = %d, want 1", tty.Restores())
	}

	g, err2 := Acquire(Config{}, WithTty(NewMockTty()))
	if err2 != nil {
		t.Fatalf("acquire after failed acquire: %v", err2)
	}
	g.Release()
}

func TestGuardRestoreFailure(t *testing.T) {
	tty := NewMockTty()
	boom := errors.New("tty vanished")

	var handled error
	g := acquireForTest(t, Config{Raw: true},
		WithTty(tty),
		WithRestoreErrorHandler(func(err error) { handled = err }))

	tty.FailRestore(boom)
	g.Release()

	if err := g.ReleaseErr(); !errors.Is(err, boom) {
		t.Fatalf("ReleaseErr = %v, want wrapped %v", err, boom)
	}
	if !errors.Is(handled, boom) {
		t.Fatalf("handler got %v, want wrapped %v", handled, boom)
	}
	if !g.Released() {
		t.Fatal("guard should count as released even when restore fails")
	}
}

func TestGuardSignalKeys(t *testing.T) {
	tty := NewMockTty()
	g := acquireForTest(t, Config{Raw: true}, WithTty(tty), WithSignalKeys())
	defer g.Release()

	if !tty.RawModeUsed().KeepSignals {
		t.Fatal("KeepSignals not propagated to MakeRaw")
	}
}
