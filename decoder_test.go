package termcore

import (
	"reflect"
	"strings"
	"testing"
)

func newTestDecoder() *Decoder {
	return NewDecoder(LookupCapabilities(""))
}

func expectEvents(t *testing.T, got, want []Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d\n got: %#v\nwant: %#v", len(got), len(want), got, want)
	}
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("event %d: got %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestDecoderKeys(t *testing.T) {
	tests := map[string]struct {
		input string
		want  []Event
	}{
		"plain rune": {
			input: "a",
			want:  []Event{KeyEvent{Key: KeyRune, Rune: 'a'}},
		},
		"two runes": {
			input: "ab",
			want: []Event{
				KeyEvent{Key: KeyRune, Rune: 'a'},
				KeyEvent{Key: KeyRune, Rune: 'b'},
			},
		},
		"enter": {
			input: "\r",
			want:  []Event{KeyEvent{Key: KeyEnter}},
		},
		"tab": {
			input: "\t",
			want:  []Event{KeyEvent{Key: KeyTab}},
		},
		"ctrl-a": {
			input: "\x01",
			want:  []Event{KeyEvent{Key: KeyCtrlA}},
		},
		"ctrl-backslash": {
			input: "\x1c",
			want:  []Event{KeyEvent{Key: KeyCtrlBackslash}},
		},
		"del is backspace": {
			input: "\x7f",
			want:  []Event{KeyEvent{Key: KeyBackspace}},
		},
		"arrow up": {
			input: "\x1b[A",
			want:  []Event{KeyEvent{Key: KeyUp}},
		},
		"ss3 f1": {
			input: "\x1bOP",
			want:  []Event{KeyEvent{Key: KeyF1}},
		},
		"delete": {
			input: "\x1b[3~",
			want:  []Event{KeyEvent{Key: KeyDelete}},
		},
		"f5": {
			input: "\x1b[15~",
			want:  []Event{KeyEvent{Key: KeyF5}},
		},
		"backtab": {
			input: "\x1b[Z",
			want:  []Event{KeyEvent{Key: KeyTab, Mod: ModShift}},
		},
		"ctrl right": {
			input: "\x1b[1;5C",
			want:  []Event{KeyEvent{Key: KeyRight, Mod: ModCtrl}},
		},
		"shift-alt up": {
			input: "\x1b[1;4A",
			want:  []Event{KeyEvent{Key: KeyUp, Mod: ModShift | ModAlt}},
		},
		"ctrl page down": {
			input: "\x1b[6;5~",
			want:  []Event{KeyEvent{Key: KeyPageDown, Mod: ModCtrl}},
		},
		"alt rune": {
			input: "\x1ba",
			want:  []Event{KeyEvent{Key: KeyRune, Rune: 'a', Mod: ModAlt}},
		},
		"alt enter": {
			input: "\x1b\r",
			want:  []Event{KeyEvent{Key: KeyEnter, Mod: ModAlt}},
		},
		"alt escape": {
			input: "\x1b\x1b",
			want:  []Event{KeyEvent{Key: KeyEscape, Mod: ModAlt}},
		},
		"wide rune": {
			input: "日",
			want:  []Event{KeyEvent{Key: KeyRune, Rune: '日'}},
		},
		"emoji": {
			input: "😀",
			want:  []Event{KeyEvent{Key: KeyRune, Rune: '😀'}},
		},
		"key after sequence": {
			input: "\x1b[Ax",
			want: []Event{
				KeyEvent{Key: KeyUp},
				KeyEvent{Key: KeyRune, Rune: 'x'},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d := newTestDecoder()
			expectEvents(t, d.Feed([]byte(tt.input)), tt.want)
			if d.Pending() {
				t.Errorf("decoder still pending after %q", tt.input)
			}
		})
	}
}

func TestDecoderChunkBoundaries(t *testing.T) {
	tests := map[string]struct {
		input string
		want  []Event
	}{
		"csi sequence": {
			input: "\x1b[1;5C",
			want:  []Event{KeyEvent{Key: KeyRight, Mod: ModCtrl}},
		},
		"utf8 rune": {
			input: "é",
			want:  []Event{KeyEvent{Key: KeyRune, Rune: 'é'}},
		},
		"sgr mouse": {
			input: "\x1b[<0;10;5M",
			want:  []Event{MouseEvent{X: 9, Y: 4, Button: MouseLeft, Action: MousePress}},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			// Feeding one byte at a time must produce exactly the same
			// events as one big feed.
			d := newTestDecoder()
			var got []Event
			for i := 0; i < len(tt.input); i++ {
				got = append(got, d.Feed([]byte{tt.input[i]})...)
			}
			expectEvents(t, got, tt.want)
		})
	}
}

func TestDecoderEscapeTimeout(t *testing.T) {
	t.Run("lone escape resolves to escape key", func(t *testing.T) {
		d := newTestDecoder()
		if got := d.Feed([]byte{0x1b}); len(got) != 0 {
			t.Fatalf("expected no events yet, got %#v", got)
		}
		if !d.Pending() {
			t.Fatal("expected a pending escape")
		}
		expectEvents(t, d.ExpireEscape(), []Event{KeyEvent{Key: KeyEscape}})
		if d.Pending() {
			t.Fatal("still pending after expiry")
		}
	})

	t.Run("partial csi resolves to literals", func(t *testing.T) {
		d := newTestDecoder()
		d.Feed([]byte("\x1b["))
		if !d.Pending() {
			t.Fatal("expected a pending escape")
		}
		expectEvents(t, d.ExpireEscape(), []Event{
			KeyEvent{Key: KeyEscape},
			KeyEvent{Key: KeyRune, Rune: '['},
		})
	})

	t.Run("sequence completing cancels pending", func(t *testing.T) {
		d := newTestDecoder()
		d.Feed([]byte("\x1b["))
		expectEvents(t, d.Feed([]byte("A")), []Event{KeyEvent{Key: KeyUp}})
		if d.Pending() {
			t.Fatal("still pending after sequence completed")
		}
	})

	t.Run("expire with nothing pending is a no-op", func(t *testing.T) {
		d := newTestDecoder()
		if got := d.ExpireEscape(); got != nil {
			t.Fatalf("expected nil, got %#v", got)
		}
	})
}

func TestDecoderAmbiguousTableEntry(t *testing.T) {
	// Build a table where one entry is a strict prefix of another, the way
	// an unusual terminfo description could. The short match must not win
	// until more input or the timeout rules the long one out.
	newAmbiguousDecoder := func() *Decoder {
		m := NewKeyMap(LookupCapabilities(""))
		m.put("\x1b[A1~", KeyF5, ModNone)
		return &Decoder{keymap: m, pasteEnd: []byte(seqPasteEnd)}
	}

	t.Run("short entry waits while long is possible", func(t *testing.T) {
		d := newAmbiguousDecoder()
		if got := d.Feed([]byte("\x1b[A")); len(got) != 0 {
			t.Fatalf("short match emitted before disambiguation: %#v", got)
		}
		if !d.Pending() {
			t.Fatal("expected a pending sequence")
		}
	})

	t.Run("long entry wins when completed", func(t *testing.T) {
		d := newAmbiguousDecoder()
		d.Feed([]byte("\x1b[A"))
		expectEvents(t, d.Feed([]byte("1~")), []Event{KeyEvent{Key: KeyF5}})
	})

	t.Run("timeout resolves to the short entry", func(t *testing.T) {
		d := newAmbiguousDecoder()
		d.Feed([]byte("\x1b[A"))
		expectEvents(t, d.ExpireEscape(), []Event{KeyEvent{Key: KeyUp}})
		if d.Pending() {
			t.Fatal("still pending after expiry")
		}
	})

	t.Run("diverging input falls back to the short entry", func(t *testing.T) {
		d := newAmbiguousDecoder()
		d.Feed([]byte("\x1b[A"))
		expectEvents(t, d.Feed([]byte("x")), []Event{
			KeyEvent{Key: KeyUp},
			KeyEvent{Key: KeyRune, Rune: 'x'},
		})
	})
}

func TestDecoderMouse(t *testing.T) {
	tests := map[string]struct {
		input string
		want  MouseEvent
	}{
		"sgr left press": {
			input: "\x1b[<0;10;5M",
			want:  MouseEvent{X: 9, Y: 4, Button: MouseLeft, Action: MousePress},
		},
		"sgr left release": {
			input: "\x1b[<0;10;5m",
			want:  MouseEvent{X: 9, Y: 4, Button: MouseLeft, Action: MouseRelease},
		},
		"sgr right press": {
			input: "\x1b[<2;1;1M",
			want:  MouseEvent{X: 0, Y: 0, Button: MouseRight, Action: MousePress},
		},
		"sgr wheel up": {
			input: "\x1b[<64;3;7M",
			want:  MouseEvent{X: 2, Y: 6, Button: MouseWheelUp, Action: MousePress},
		},
		"sgr wheel down": {
			input: "\x1b[<65;3;7M",
			want:  MouseEvent{X: 2, Y: 6, Button: MouseWheelDown, Action: MousePress},
		},
		"sgr drag": {
			input: "\x1b[<32;4;4M",
			want:  MouseEvent{X: 3, Y: 3, Button: MouseLeft, Action: MouseDrag},
		},
		"sgr motion without button": {
			input: "\x1b[<35;4;4M",
			want:  MouseEvent{X: 3, Y: 3, Button: MouseNone, Action: MouseMove},
		},
		"sgr ctrl click": {
			input: "\x1b[<16;1;1M",
			want:  MouseEvent{X: 0, Y: 0, Button: MouseLeft, Action: MousePress, Mod: ModCtrl},
		},
		"sgr shift click": {
			input: "\x1b[<4;1;1M",
			want:  MouseEvent{X: 0, Y: 0, Button: MouseLeft, Action: MousePress, Mod: ModShift},
		},
		"x10 left press": {
			input: "\x1b[M\x20\x21\x21",
			want:  MouseEvent{X: 0, Y: 0, Button: MouseLeft, Action: MousePress},
		},
		"x10 release": {
			input: "\x1b[M\x23\x21\x21",
			want:  MouseEvent{X: 0, Y: 0, Button: MouseNone, Action: MouseRelease},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d := newTestDecoder()
			expectEvents(t, d.Feed([]byte(tt.input)), []Event{tt.want})
		})
	}
}

func TestDecoderResizeReport(t *testing.T) {
	d := newTestDecoder()
	expectEvents(t, d.Feed([]byte("\x1b[8;24;80t")), []Event{
		ResizeEvent{Width: 80, Height: 24},
	})
}

func TestDecoderPaste(t *testing.T) {
	caps := LookupCapabilities("")
	start := caps.PasteStart()
	end := caps.PasteEnd()

	t.Run("simple paste", func(t *testing.T) {
		d := newTestDecoder()
		expectEvents(t, d.Feed([]byte(start+"hello"+end)), []Event{
			PasteStartEvent{},
			PasteEvent{Text: "hello"},
			PasteEndEvent{},
		})
	})

	t.Run("escape bytes inside paste stay literal", func(t *testing.T) {
		d := newTestDecoder()
		expectEvents(t, d.Feed([]byte(start+"\x1bOP\x1b[A"+end)), []Event{
			PasteStartEvent{},
			PasteEvent{Text: "\x1bOP\x1b[A"},
			PasteEndEvent{},
		})
	})

	t.Run("large paste is chunked", func(t *testing.T) {
		d := newTestDecoder()
		text := strings.Repeat("x", PasteChunkSize*2+100)
		got := d.Feed([]byte(start + text + end))

		if _, ok := got[0].(PasteStartEvent); !ok {
			t.Fatalf("first event %#v, want PasteStartEvent", got[0])
		}
		if _, ok := got[len(got)-1].(PasteEndEvent); !ok {
			t.Fatalf("last event %#v, want PasteEndEvent", got[len(got)-1])
		}
		var rebuilt strings.Builder
		for _, ev := range got[1 : len(got)-1] {
			pe, ok := ev.(PasteEvent)
			if !ok {
				t.Fatalf("unexpected event %#v inside paste", ev)
			}
			if len(pe.Text) > PasteChunkSize {
				t.Fatalf("chunk of %d bytes exceeds limit %d", len(pe.Text), PasteChunkSize)
			}
			rebuilt.WriteString(pe.Text)
		}
		if rebuilt.String() != text {
			t.Fatal("reassembled paste does not match input")
		}
	})

	t.Run("paste split across feeds", func(t *testing.T) {
		d := newTestDecoder()
		var got []Event
		full := start + "abcdef" + end
		for i := 0; i < len(full); i += 3 {
			j := i + 3
			if j > len(full) {
				j = len(full)
			}
			got = append(got, d.Feed([]byte(full[i:j]))...)
		}
		if _, ok := got[0].(PasteStartEvent); !ok {
			t.Fatalf("first event %#v, want PasteStartEvent", got[0])
		}
		if _, ok := got[len(got)-1].(PasteEndEvent); !ok {
			t.Fatalf("last event %#v, want PasteEndEvent", got[len(got)-1])
		}
		var rebuilt strings.Builder
		for _, ev := range got[1 : len(got)-1] {
			rebuilt.WriteString(ev.(PasteEvent).Text)
		}
		if rebuilt.String() != "abcdef" {
			t.Fatalf("reassembled %q, want %q", rebuilt.String(), "abcdef")
		}
	})

	t.Run("text resembling end marker", func(t *testing.T) {
		d := newTestDecoder()
		text := "abc\x1b[201Zdef"
		expectEvents(t, d.Feed([]byte(start+text+end)), []Event{
			PasteStartEvent{},
			PasteEvent{Text: text},
			PasteEndEvent{},
		})
	})

	t.Run("input after paste decodes normally", func(t *testing.T) {
		d := newTestDecoder()
		expectEvents(t, d.Feed([]byte(start+"hi"+end+"\x1b[A")), []Event{
			PasteStartEvent{},
			PasteEvent{Text: "hi"},
			PasteEndEvent{},
			KeyEvent{Key: KeyUp},
		})
	})
}

func TestDecoderFailSoft(t *testing.T) {
	t.Run("unknown ss3 final", func(t *testing.T) {
		d := newTestDecoder()
		expectEvents(t, d.Feed([]byte("\x1bOz")), []Event{
			KeyEvent{Key: KeyEscape},
			KeyEvent{Key: KeyRune, Rune: 'O'},
			KeyEvent{Key: KeyRune, Rune: 'z'},
		})
	})

	t.Run("malformed csi byte", func(t *testing.T) {
		d := newTestDecoder()
		expectEvents(t, d.Feed([]byte("\x1b[12\x01")), []Event{
			KeyEvent{Key: KeyEscape},
			KeyEvent{Key: KeyRune, Rune: '['},
			KeyEvent{Key: KeyRune, Rune: '1'},
			KeyEvent{Key: KeyRune, Rune: '2'},
			KeyEvent{Key: KeyCtrlA},
		})
	})

	t.Run("oversized csi gives up", func(t *testing.T) {
		d := newTestDecoder()
		got := d.Feed([]byte("\x1b[" + strings.Repeat("9", 64) + "m"))
		if len(got) == 0 {
			t.Fatal("expected literal events for an oversized sequence")
		}
		if got[0] != (KeyEvent{Key: KeyEscape}) {
			t.Fatalf("first event %#v, want bare escape", got[0])
		}
		if d.Pending() {
			t.Fatal("decoder wedged on oversized sequence")
		}
	})

	t.Run("invalid utf8 byte", func(t *testing.T) {
		d := newTestDecoder()
		expectEvents(t, d.Feed([]byte{0xff}), []Event{
			KeyEvent{Key: KeyRune, Rune: '�'},
		})
	})

	t.Run("truncated utf8 waits for continuation", func(t *testing.T) {
		d := newTestDecoder()
		if got := d.Feed([]byte{0xc3}); len(got) != 0 {
			t.Fatalf("expected no events for a partial rune, got %#v", got)
		}
		if d.Pending() {
			t.Fatal("partial rune must not be escape-pending")
		}
		expectEvents(t, d.Feed([]byte{0xa9}), []Event{
			KeyEvent{Key: KeyRune, Rune: 'é'},
		})
	})
}
