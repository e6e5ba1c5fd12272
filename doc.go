// Package termcore provides low-level terminal control for interactive
// programs: raw input mode with guaranteed restoration, reversible terminal
// feature toggles (mouse reporting, bracketed paste, alternate screen), a
// streaming decoder that turns raw terminal bytes into structured input
// events, and grapheme-aware display-width computation.
//
// The package does not render anything. It owns terminal state and produces
// events; what to draw is the caller's concern.
package termcore
