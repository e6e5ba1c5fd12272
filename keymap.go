package termcore

import (
	"strconv"

	"github.com/gdamore/tcell/v2/terminfo"
)

// Sentinel keys used internally by the decoder to recognize bracketed-paste
// markers through the ordinary key table. They are never delivered to
// callers as key events.
const (
	keyPasteStart Key = 0x4000 + iota
	keyPasteEnd
)

// KeyMapEntry pairs a literal escape sequence with the logical key and
// modifier set it encodes.
type KeyMapEntry struct {
	Seq string
	Key Key
	Mod Modifier
}

// KeyMap is a lookup table from literal escape-sequence byte strings to
// logical keys, built once from the terminal's capability database.
//
// Entries with parameter placeholders (cursor position reports and the
// like) are never loaded into the table; the decoder handles those
// structurally. Capability databases occasionally contain entries where
// one sequence is a strict prefix of another; the table resolves the
// ambiguity with longest-match-wins, and HasPrefix lets the decoder hold
// incomplete input until more bytes arrive or a timeout expires.
type KeyMap struct {
	entries  map[string]KeyMapEntry
	prefixes map[string]struct{}
	maxLen   int
}

// NewKeyMap builds a key table for the given capabilities. Terminfo key
// capabilities are registered first and win; xterm-style sequences that
// terminfo commonly omits (application cursor mode, modified keys) are
// filled in afterwards without displacing database entries.
func NewKeyMap(caps *Capabilities) *KeyMap {
	if caps == nil {
		caps = CurrentCapabilities()
	}
	m := &KeyMap{
		entries:  make(map[string]KeyMapEntry),
		prefixes: make(map[string]struct{}),
	}

	if ti := caps.terminfoEntry(); ti != nil {
		m.loadTerminfo(ti)
	}
	m.loadXTermDefaults()

	// Paste markers are always recognized: the terminal only sends them
	// when bracketed paste was enabled, and decoding them as literal keys
	// would corrupt input.
	m.put(caps.PasteStart(), keyPasteStart, ModNone)
	m.put(caps.PasteEnd(), keyPasteEnd, ModNone)

	return m
}

// Lookup finds the longest table entry matching a prefix of data.
// Returns the entry, the number of bytes it covers, and whether a match
// was found.
func (m *KeyMap) Lookup(data []byte) (KeyMapEntry, int, bool) {
	max := len(data)
	if max > m.maxLen {
		max = m.maxLen
	}
	for l := max; l >= 1; l-- {
		if e, ok := m.entries[string(data[:l])]; ok {
			return e, l, true
		}
	}
	return KeyMapEntry{}, 0, false
}

// HasPrefix reports whether data is a strict prefix of at least one table
// entry, i.e. whether more input could still complete a match.
func (m *KeyMap) HasPrefix(data []byte) bool {
	if len(data) >= m.maxLen {
		return false
	}
	_, ok := m.prefixes[string(data)]
	return ok
}

// put registers a sequence. Empty sequences are ignored and existing
// entries win, so database entries loaded first take priority over the
// injected xterm defaults.
func (m *KeyMap) put(seq string, key Key, mod Modifier) {
	if seq == "" {
		return
	}
	if _, exists := m.entries[seq]; exists {
		return
	}
	m.entries[seq] = KeyMapEntry{Seq: seq, Key: key, Mod: mod}
	if len(seq) > m.maxLen {
		m.maxLen = len(seq)
	}
	for i := 1; i < len(seq); i++ {
		m.prefixes[seq[:i]] = struct{}{}
	}
}

// loadTerminfo registers the literal key capabilities of a terminfo entry.
func (m *KeyMap) loadTerminfo(ti *terminfo.Terminfo) {
	m.put(ti.KeyBackspace, KeyBackspace, ModNone)
	m.put(ti.KeyInsert, KeyInsert, ModNone)
	m.put(ti.KeyDelete, KeyDelete, ModNone)
	m.put(ti.KeyHome, KeyHome, ModNone)
	m.put(ti.KeyEnd, KeyEnd, ModNone)
	m.put(ti.KeyUp, KeyUp, ModNone)
	m.put(ti.KeyDown, KeyDown, ModNone)
	m.put(ti.KeyLeft, KeyLeft, ModNone)
	m.put(ti.KeyRight, KeyRight, ModNone)
	m.put(ti.KeyPgUp, KeyPageUp, ModNone)
	m.put(ti.KeyPgDn, KeyPageDown, ModNone)
	m.put(ti.KeyBacktab, KeyTab, ModShift)

	fkeys := []string{
		ti.KeyF1, ti.KeyF2, ti.KeyF3, ti.KeyF4, ti.KeyF5, ti.KeyF6,
		ti.KeyF7, ti.KeyF8, ti.KeyF9, ti.KeyF10, ti.KeyF11, ti.KeyF12,
	}
	for i, seq := range fkeys {
		m.put(seq, KeyF1+Key(i), ModNone)
	}

	m.put(ti.KeyShfUp, KeyUp, ModShift)
	m.put(ti.KeyShfDown, KeyDown, ModShift)
	m.put(ti.KeyShfLeft, KeyLeft, ModShift)
	m.put(ti.KeyShfRight, KeyRight, ModShift)
	m.put(ti.KeyShfHome, KeyHome, ModShift)
	m.put(ti.KeyShfEnd, KeyEnd, ModShift)
	m.put(ti.KeyShfPgUp, KeyPageUp, ModShift)
	m.put(ti.KeyShfPgDn, KeyPageDown, ModShift)

	m.put(ti.KeyCtrlUp, KeyUp, ModCtrl)
	m.put(ti.KeyCtrlDown, KeyDown, ModCtrl)
	m.put(ti.KeyCtrlLeft, KeyLeft, ModCtrl)
	m.put(ti.KeyCtrlRight, KeyRight, ModCtrl)
	m.put(ti.KeyCtrlHome, KeyHome, ModCtrl)
	m.put(ti.KeyCtrlEnd, KeyEnd, ModCtrl)

	if ti.Modifiers == terminfo.ModifiersXTerm {
		m.loadXTermModified()
	}
}

// loadXTermDefaults injects the escape sequences xterm-family terminals
// send in practice. Terminals switch between normal and application cursor
// mode, and terminfo entries describe only one of the two, so both
// variants are registered. Existing entries are never displaced.
func (m *KeyMap) loadXTermDefaults() {
	cursor := []struct {
		final byte
		key   Key
	}{
		{'A', KeyUp}, {'B', KeyDown}, {'C', KeyRight}, {'D', KeyLeft},
		{'H', KeyHome}, {'F', KeyEnd},
	}
	for _, c := range cursor {
		m.put("\x1b["+string(c.final), c.key, ModNone)
		m.put("\x1bO"+string(c.final), c.key, ModNone)
	}

	// SS3 function keys F1-F4.
	for i, final := range []string{"P", "Q", "R", "S"} {
		m.put("\x1bO"+final, KeyF1+Key(i), ModNone)
	}

	tilde := []struct {
		num int
		key Key
	}{
		{1, KeyHome}, {2, KeyInsert}, {3, KeyDelete}, {4, KeyEnd},
		{5, KeyPageUp}, {6, KeyPageDown},
		{11, KeyF1}, {12, KeyF2}, {13, KeyF3}, {14, KeyF4},
		{15, KeyF5}, {17, KeyF6}, {18, KeyF7}, {19, KeyF8},
		{20, KeyF9}, {21, KeyF10}, {23, KeyF11}, {24, KeyF12},
	}
	for _, t := range tilde {
		m.put("\x1b["+strconv.Itoa(t.num)+"~", t.key, ModNone)
	}

	m.put("\x1b[Z", KeyTab, ModShift)

	m.loadXTermModified()
}

// loadXTermModified registers the xterm modified-key encodings:
// CSI 1 ; m <final> for cursor-style keys and CSI n ; m ~ for the
// tilde-terminated keys, where m encodes the modifier set.
func (m *KeyMap) loadXTermModified() {
	cursor := []struct {
		final string
		key   Key
	}{
		{"A", KeyUp}, {"B", KeyDown}, {"C", KeyRight}, {"D", KeyLeft},
		{"H", KeyHome}, {"F", KeyEnd},
		{"P", KeyF1}, {"Q", KeyF2}, {"R", KeyF3}, {"S", KeyF4},
	}
	tilde := []struct {
		num int
		key Key
	}{
		{2, KeyInsert}, {3, KeyDelete}, {5, KeyPageUp}, {6, KeyPageDown},
		{15, KeyF5}, {17, KeyF6}, {18, KeyF7}, {19, KeyF8},
		{20, KeyF9}, {21, KeyF10}, {23, KeyF11}, {24, KeyF12},
	}

	// Modifier parameter m is 1 + shift(1) + alt(2) + ctrl(4).
	for p := 2; p <= 8; p++ {
		mod := decodeModifierParam(p)
		for _, c := range cursor {
			m.put("\x1b[1;"+strconv.Itoa(p)+c.final, c.key, mod)
		}
		for _, t := range tilde {
			m.put("\x1b["+strconv.Itoa(t.num)+";"+strconv.Itoa(p)+"~", t.key, mod)
		}
	}
}

// decodeModifierParam decodes the xterm modifier parameter:
// 1=none, 2=shift, 3=alt, 4=shift+alt, 5=ctrl, 6=ctrl+shift,
// 7=ctrl+alt, 8=ctrl+alt+shift.
func decodeModifierParam(param int) Modifier {
	if param <= 1 {
		return ModNone
	}
	flags := param - 1
	var mod Modifier
	if flags&1 != 0 {
		mod |= ModShift
	}
	if flags&2 != 0 {
		mod |= ModAlt
	}
	if flags&4 != 0 {
		mod |= ModCtrl
	}
	return mod
}
