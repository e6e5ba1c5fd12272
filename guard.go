package termcore

import (
	"errors"
	"sync"
)

// Config selects what a Guard takes ownership of. The zero value acquires
// nothing but the conflict lock, which is occasionally useful on its own.
type Config struct {
	// Raw switches the terminal into raw mode.
	Raw bool
	// Mouse enables mouse reporting.
	Mouse bool
	// BracketedPaste enables bracketed-paste mode.
	BracketedPaste bool
	// AltScreen switches to the alternate screen buffer.
	AltScreen bool
}

// GuardOption configures a Guard before acquisition.
type GuardOption func(*Guard) error

// WithTty directs the guard at a specific terminal instead of the
// process's stdio.
func WithTty(tty Tty) GuardOption {
	return func(g *Guard) error {
		if tty == nil {
			return errors.New("tty cannot be nil")
		}
		g.tty = tty
		return nil
	}
}

// WithCapabilities overrides terminal capability detection.
func WithCapabilities(caps *Capabilities) GuardOption {
	return func(g *Guard) error {
		if caps == nil {
			return errors.New("capabilities cannot be nil")
		}
		g.caps = caps
		return nil
	}
}

// WithRestoreErrorHandler registers a callback invoked when Release fails
// to fully restore the terminal. Without it, restore failures are only
// observable through ReleaseErr.
func WithRestoreErrorHandler(fn func(error)) GuardOption {
	return func(g *Guard) error {
		g.restoreErrFn = fn
		return nil
	}
}

// WithSignalKeys keeps Ctrl+C and Ctrl+Z generating signals while in raw
// mode rather than arriving as input bytes.
func WithSignalKeys() GuardOption {
	return func(g *Guard) error {
		g.rawMode.KeepSignals = true
		return nil
	}
}

// activeGuard enforces the one-guard-per-process rule. Nested acquisition
// would make restoration order ambiguous, so it is refused outright.
var (
	activeMu    sync.Mutex
	activeGuard *Guard
)

// Guard owns the terminal's state for the span between Acquire and
// Release. While held, it is the single writer of mode changes; Release
// undoes everything Acquire did, in reverse order, and is safe to call
// from a deferred function even after a partial failure elsewhere.
type Guard struct {
	tty  Tty
	caps *Capabilities

	features *FeatureStack
	rawMode  RawMode

	mu          sync.Mutex
	saved       TerminalAttributes
	raw         bool
	enabled     FeatureSet
	unsupported FeatureSet
	released    bool
	releaseErr  error

	restoreErrFn func(error)
}

// Acquire captures the terminal's current state, then applies the
// requested configuration: raw mode first, then features in a fixed
// order. A feature the terminal does not support is skipped and recorded
// (see Unsupported); any other failure unwinds everything already applied
// and returns the error, leaving the terminal as it was found.
//
// Only one Guard may be held per process; a second Acquire fails with
// ErrGuardConflict until the first is released.
func Acquire(cfg Config, opts ...GuardOption) (*Guard, error) {
	g := &Guard{}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	if g.tty == nil {
		g.tty = Stdio()
	}
	if g.caps == nil {
		g.caps = CurrentCapabilities()
	}

	activeMu.Lock()
	if activeGuard != nil {
		activeMu.Unlock()
		return nil, ErrGuardConflict
	}
	activeGuard = g
	activeMu.Unlock()

	if err := g.apply(cfg); err != nil {
		activeMu.Lock()
		activeGuard = nil
		activeMu.Unlock()
		return nil, err
	}
	return g, nil
}

// apply performs the acquisition steps, unwinding on failure.
func (g *Guard) apply(cfg Config) error {
	if cfg.Raw {
		if !g.tty.IsTerminal() {
			return ErrNotATerminal
		}
		saved, err := g.tty.Capture()
		if err != nil {
			return err
		}
		if err := g.tty.MakeRaw(g.rawMode); err != nil {
			// MakeRaw can fail after partially applying (the Windows path
			// touches two console handles); put the snapshot back.
			g.tty.Restore(saved)
			return err
		}
		g.saved = saved
		g.raw = true
	}

	g.features = NewFeatureStack(g.tty, g.caps)

	for _, want := range []struct {
		on bool
		f  Feature
	}{
		{cfg.Mouse, FeatureMouse},
		{cfg.BracketedPaste, FeatureBracketedPaste},
		{cfg.AltScreen, FeatureAltScreen},
	} {
		if !want.on {
			continue
		}
		err := g.features.Enable(want.f)
		if errors.Is(err, ErrFeatureUnavailable) {
			g.unsupported = g.unsupported.With(want.f)
			continue
		}
		if err != nil {
			g.unwind()
			return err
		}
		g.enabled = g.enabled.With(want.f)
	}
	return nil
}

// teardownSet is every feature this guard must disable at teardown: what
// the guard itself enabled, even if the caller toggled it off and the
// terminal was re-enabled out of band since, plus anything the caller
// enabled through the stack afterwards.
func (g *Guard) teardownSet() FeatureSet {
	return g.enabled | g.features.Snapshot()
}

// unwind reverses a partial acquisition: disable whatever features were
// enabled, then restore the saved attributes.
func (g *Guard) unwind() {
	g.features.DisableAll(g.teardownSet())
	if g.raw {
		g.tty.Restore(g.saved)
		g.raw = false
	}
}

// Release restores the terminal: every feature the guard enabled is
// disabled (even if the caller toggled it in the meantime), then the
// captured attributes are reapplied. It never
// fails; restoration is attempted for every layer even when an earlier
// one errors, and the combined error is available from ReleaseErr. Calling
// Release again is a no-op, so it belongs in a defer right after Acquire.
func (g *Guard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return
	}
	g.released = true

	var errs []error
	if err := g.features.DisableAll(g.teardownSet()); err != nil {
		errs = append(errs, err)
	}
	if g.raw {
		if err := g.tty.Restore(g.saved); err != nil {
			errs = append(errs, err)
		}
		g.raw = false
	}
	g.releaseErr = errors.Join(errs...)

	activeMu.Lock()
	if activeGuard == g {
		activeGuard = nil
	}
	activeMu.Unlock()

	if g.releaseErr != nil && g.restoreErrFn != nil {
		g.restoreErrFn(g.releaseErr)
	}
}

// ReleaseErr returns the error from Release, or nil if the terminal was
// restored cleanly or Release has not run yet.
func (g *Guard) ReleaseErr() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.releaseErr
}

// Released reports whether Release has been called.
func (g *Guard) Released() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}

// Features exposes the guard's feature stack for toggling features after
// acquisition, for example suspending mouse reporting while a shell
// command runs.
func (g *Guard) Features() *FeatureStack {
	return g.features
}

// Unsupported returns the features that were requested at acquisition but
// the terminal does not support.
func (g *Guard) Unsupported() FeatureSet {
	return g.unsupported
}

// Capabilities returns the capability set the guard resolved at
// acquisition.
func (g *Guard) Capabilities() *Capabilities {
	return g.caps
}
