package termcore

import "strings"

// Key identifies a logical keyboard key.
type Key uint16

const (
	// KeyNone represents no key (zero value).
	KeyNone Key = iota

	// KeyRune represents a printable character. Check KeyEvent.Rune for the character.
	KeyRune

	// Special keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert

	// Arrow keys
	KeyUp
	KeyDown
	KeyLeft
	KeyRight

	// Navigation keys
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// Control keys (Ctrl+A through Ctrl+Z)
	KeyCtrlA
	KeyCtrlB
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlF
	KeyCtrlG
	KeyCtrlH
	KeyCtrlI
	KeyCtrlJ
	KeyCtrlK
	KeyCtrlL
	KeyCtrlM
	KeyCtrlN
	KeyCtrlO
	KeyCtrlP
	KeyCtrlQ
	KeyCtrlR
	KeyCtrlS
	KeyCtrlT
	KeyCtrlU
	KeyCtrlV
	KeyCtrlW
	KeyCtrlX
	KeyCtrlY
	KeyCtrlZ

	// KeyCtrlSpace represents Ctrl+Space (NUL character, 0x00)
	KeyCtrlSpace

	// Remaining C0 control keys (0x1C-0x1F)
	KeyCtrlBackslash
	KeyCtrlRightBracket
	KeyCtrlCaret
	KeyCtrlUnderscore
)

// keyNames maps keys to their display names. Ctrl+letter keys are derived
// arithmetically in String and are not listed here.
var keyNames = map[Key]string{
	KeyNone:             "None",
	KeyRune:             "Rune",
	KeyEscape:           "Escape",
	KeyEnter:            "Enter",
	KeyTab:              "Tab",
	KeyBackspace:        "Backspace",
	KeyDelete:           "Delete",
	KeyInsert:           "Insert",
	KeyUp:               "Up",
	KeyDown:             "Down",
	KeyLeft:             "Left",
	KeyRight:            "Right",
	KeyHome:             "Home",
	KeyEnd:              "End",
	KeyPageUp:           "PageUp",
	KeyPageDown:         "PageDown",
	KeyF1:               "F1",
	KeyF2:               "F2",
	KeyF3:               "F3",
	KeyF4:               "F4",
	KeyF5:               "F5",
	KeyF6:               "F6",
	KeyF7:               "F7",
	KeyF8:               "F8",
	KeyF9:               "F9",
	KeyF10:              "F10",
	KeyF11:              "F11",
	KeyF12:              "F12",
	KeyCtrlSpace:        "Ctrl+Space",
	KeyCtrlBackslash:    "Ctrl+\\",
	KeyCtrlRightBracket: "Ctrl+]",
	KeyCtrlCaret:        "Ctrl+^",
	KeyCtrlUnderscore:   "Ctrl+_",
}

// String returns a human-readable representation of the key.
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if k >= KeyCtrlA && k <= KeyCtrlZ {
		return "Ctrl+" + string(rune('A'+k-KeyCtrlA))
	}
	return "Unknown"
}

// Modifier represents keyboard modifier flags.
type Modifier uint8

const (
	// ModNone represents no modifiers.
	ModNone Modifier = 0
	// ModCtrl represents the Ctrl modifier.
	ModCtrl Modifier = 1 << iota
	// ModAlt represents the Alt modifier.
	ModAlt
	// ModShift represents the Shift modifier.
	ModShift
)

// Has checks if the modifier set includes the given modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// String returns a human-readable representation of the modifiers.
func (m Modifier) String() string {
	if m == ModNone {
		return "None"
	}

	var parts []string
	if m.Has(ModCtrl) {
		parts = append(parts, "Ctrl")
	}
	if m.Has(ModAlt) {
		parts = append(parts, "Alt")
	}
	if m.Has(ModShift) {
		parts = append(parts, "Shift")
	}
	return strings.Join(parts, "+")
}
