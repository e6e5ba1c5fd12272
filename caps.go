package termcore

import (
	"os"

	"github.com/gdamore/tcell/v2/terminfo"

	// Register the stock terminal descriptions so common $TERM values
	// resolve without an on-disk terminfo database.
	_ "github.com/gdamore/tcell/v2/terminfo/base"
)

// Standard xterm private-mode sequences. These are used when the terminfo
// entry does not carry an explicit capability: terminfo has never grown
// entries for mouse flavors or bracketed paste on most systems, so every
// terminal library hardcodes these and gates them on related capabilities.
const (
	seqEnableMouse  = "\x1b[?1000h\x1b[?1002h\x1b[?1006h"
	seqDisableMouse = "\x1b[?1006l\x1b[?1002l\x1b[?1000l"
	seqEnablePaste  = "\x1b[?2004h"
	seqDisablePaste = "\x1b[?2004l"
	seqEnterAlt     = "\x1b[?1049h"
	seqExitAlt      = "\x1b[?1049l"
	seqPasteStart   = "\x1b[200~"
	seqPasteEnd     = "\x1b[201~"
)

// Capabilities describes what a terminal can do and which literal byte
// sequences drive it. It is built from the terminfo database when the
// terminal type is known, and degrades to xterm-compatible defaults when
// it is not: an unknown terminal is far more likely to be an xterm clone
// than a genuinely dumb device.
type Capabilities struct {
	// Name is the terminal type this was resolved for (e.g. "xterm-256color").
	Name string

	// Fallback is true when the terminfo database had no entry for Name and
	// xterm-compatible defaults are in use.
	Fallback bool

	ti *terminfo.Terminfo
}

// CurrentCapabilities resolves capabilities for the terminal named by the
// TERM environment variable.
func CurrentCapabilities() *Capabilities {
	return LookupCapabilities(os.Getenv("TERM"))
}

// LookupCapabilities resolves capabilities for the named terminal type.
// A missing or unknown name yields xterm-compatible fallback capabilities
// rather than an error; individual features that the terminal genuinely
// lacks surface later as ErrFeatureUnavailable.
func LookupCapabilities(term string) *Capabilities {
	if term == "" {
		return &Capabilities{Name: "xterm", Fallback: true}
	}
	ti, err := terminfo.LookupTerminfo(term)
	if err != nil {
		return &Capabilities{Name: term, Fallback: true}
	}
	return &Capabilities{Name: term, ti: ti}
}

// Supports reports whether the terminal has the sequences needed for the
// given feature.
func (c *Capabilities) Supports(f Feature) bool {
	return c.EnableSequence(f) != ""
}

// EnableSequence returns the literal byte sequence that turns the feature
// on, or "" when the terminal does not support it.
func (c *Capabilities) EnableSequence(f Feature) string {
	switch f {
	case FeatureMouse:
		if c.ti != nil && c.ti.Mouse == "" {
			return ""
		}
		return seqEnableMouse
	case FeatureBracketedPaste:
		if c.ti != nil {
			if c.ti.EnablePaste != "" {
				return c.ti.EnablePaste
			}
			// Terminals with mouse support universally offer bracketed
			// paste even when their terminfo entry predates the capability.
			if c.ti.Mouse == "" {
				return ""
			}
		}
		return seqEnablePaste
	case FeatureAltScreen:
		if c.ti != nil {
			return c.ti.EnterCA
		}
		return seqEnterAlt
	}
	return ""
}

// DisableSequence returns the literal byte sequence that turns the feature
// off, or "" when the terminal does not support it.
func (c *Capabilities) DisableSequence(f Feature) string {
	switch f {
	case FeatureMouse:
		if c.ti != nil && c.ti.Mouse == "" {
			return ""
		}
		return seqDisableMouse
	case FeatureBracketedPaste:
		if c.ti != nil {
			if c.ti.DisablePaste != "" {
				return c.ti.DisablePaste
			}
			if c.ti.Mouse == "" {
				return ""
			}
		}
		return seqDisablePaste
	case FeatureAltScreen:
		if c.ti != nil {
			return c.ti.ExitCA
		}
		return seqExitAlt
	}
	return ""
}

// PasteStart returns the marker the terminal sends before pasted text when
// bracketed paste is enabled.
func (c *Capabilities) PasteStart() string {
	if c.ti != nil && c.ti.PasteStart != "" {
		return c.ti.PasteStart
	}
	return seqPasteStart
}

// PasteEnd returns the marker the terminal sends after pasted text when
// bracketed paste is enabled.
func (c *Capabilities) PasteEnd() string {
	if c.ti != nil && c.ti.PasteEnd != "" {
		return c.ti.PasteEnd
	}
	return seqPasteEnd
}

// terminfoEntry exposes the underlying description to the key map builder.
// Nil when running on fallback capabilities.
func (c *Capabilities) terminfoEntry() *terminfo.Terminfo {
	return c.ti
}
