package termcore

import (
	"errors"
	"io"
)

// Feature is an optional terminal reporting mode that can be toggled with
// an escape sequence pair.
type Feature uint8

const (
	// FeatureMouse enables mouse event reporting (SGR encoding plus
	// button-event tracking).
	FeatureMouse Feature = iota
	// FeatureBracketedPaste wraps pasted text in start/end markers so it can
	// be told apart from typed input.
	FeatureBracketedPaste
	// FeatureAltScreen switches to the alternate screen buffer, preserving
	// the user's scrollback.
	FeatureAltScreen

	numFeatures
)

// String returns a human-readable representation of the feature.
func (f Feature) String() string {
	switch f {
	case FeatureMouse:
		return "mouse reporting"
	case FeatureBracketedPaste:
		return "bracketed paste"
	case FeatureAltScreen:
		return "alternate screen"
	}
	return "unknown feature"
}

// FeatureSet is a set of features, used for snapshots and bulk disable.
type FeatureSet uint8

// Has checks if the set contains the given feature.
func (s FeatureSet) Has(f Feature) bool {
	return s&(1<<f) != 0
}

// With returns the set with the given feature added.
func (s FeatureSet) With(f Feature) FeatureSet {
	return s | (1 << f)
}

// Without returns the set with the given feature removed.
func (s FeatureSet) Without(f Feature) FeatureSet {
	return s &^ (1 << f)
}

// FeatureStack tracks which optional terminal reporting modes are currently
// enabled and writes their toggle sequences to the terminal. A feature's
// recorded state flips only after its sequence was actually written: the
// stack never reports "enabled" for a mode the terminal was not told about.
//
// The stack assumes a single controlling goroutine, matching the rest of
// the package; callers using it from multiple goroutines must serialize.
type FeatureStack struct {
	w       io.Writer
	caps    *Capabilities
	enabled FeatureSet
}

// NewFeatureStack creates a feature stack writing toggle sequences to w,
// using the given capabilities to resolve sequences.
func NewFeatureStack(w io.Writer, caps *Capabilities) *FeatureStack {
	if caps == nil {
		caps = CurrentCapabilities()
	}
	return &FeatureStack{w: w, caps: caps}
}

// Enable turns the feature on. It is a no-op if the feature is already
// enabled. Returns ErrFeatureUnavailable when the terminal has no sequence
// for the feature, or a FeatureWriteError when the sequence could not be
// written; in both cases the recorded state is unchanged.
func (s *FeatureStack) Enable(f Feature) error {
	if s.enabled.Has(f) {
		return nil
	}
	seq := s.caps.EnableSequence(f)
	if seq == "" {
		return ErrFeatureUnavailable
	}
	if _, err := io.WriteString(s.w, seq); err != nil {
		return &FeatureWriteError{Feature: f, Enable: true, Err: err}
	}
	s.enabled = s.enabled.With(f)
	return nil
}

// Disable turns the feature off. It mirrors Enable: a no-op if already
// disabled, ErrFeatureUnavailable without a sequence, FeatureWriteError on
// a failed write (in which case the feature stays recorded as enabled,
// since the terminal never saw the disable sequence).
func (s *FeatureStack) Disable(f Feature) error {
	if !s.enabled.Has(f) {
		return nil
	}
	seq := s.caps.DisableSequence(f)
	if seq == "" {
		return ErrFeatureUnavailable
	}
	if _, err := io.WriteString(s.w, seq); err != nil {
		return &FeatureWriteError{Feature: f, Enable: false, Err: err}
	}
	s.enabled = s.enabled.Without(f)
	return nil
}

// Enabled reports whether the feature is currently enabled.
func (s *FeatureStack) Enabled(f Feature) bool {
	return s.enabled.Has(f)
}

// Snapshot returns the set of currently enabled features.
func (s *FeatureStack) Snapshot() FeatureSet {
	return s.enabled
}

// DisableAll writes the disable sequence for every feature in the set,
// regardless of the recorded state. It is used by guard teardown, which
// must not trust the recorded state: the caller may have toggled modes
// without going through the stack, and leaving one on wedges the user's
// shell. Failures do not stop the remaining features from being attempted;
// all failures are aggregated into the returned error.
func (s *FeatureStack) DisableAll(set FeatureSet) error {
	var errs []error
	for f := Feature(0); f < numFeatures; f++ {
		if !set.Has(f) {
			continue
		}
		seq := s.caps.DisableSequence(f)
		if seq == "" {
			// Nothing was ever written for this feature.
			s.enabled = s.enabled.Without(f)
			continue
		}
		if _, err := io.WriteString(s.w, seq); err != nil {
			errs = append(errs, &FeatureWriteError{Feature: f, Err: err})
			continue
		}
		s.enabled = s.enabled.Without(f)
	}
	return errors.Join(errs...)
}
