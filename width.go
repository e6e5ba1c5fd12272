package termcore

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// GraphemeSpan describes one user-perceived character in a string: the
// byte range it occupies and the number of terminal columns it renders as.
type GraphemeSpan struct {
	// Start and End are byte offsets into the original string, with End
	// exclusive.
	Start int
	End   int
	// Width is the cluster's rendered width in columns: 0 for control and
	// zero-width characters, 1 for narrow, 2 for wide.
	Width int
}

// Graphemes segments s into grapheme clusters and returns a span for each.
// Combining sequences, ZWJ emoji, and regional-indicator flags all count
// as a single span.
func Graphemes(s string) []GraphemeSpan {
	if s == "" {
		return nil
	}
	spans := make([]GraphemeSpan, 0, len(s))

	state := -1
	var cluster string
	offset := 0
	rest := s
	for len(rest) > 0 {
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		spans = append(spans, GraphemeSpan{
			Start: offset,
			End:   offset + len(cluster),
			Width: clusterWidth(cluster),
		})
		offset += len(cluster)
	}
	return spans
}

// StringWidth returns the number of terminal columns s occupies when
// printed. Control characters contribute zero columns.
func StringWidth(s string) int {
	if s == "" {
		return 0
	}
	width := 0
	state := -1
	var cluster string
	for len(s) > 0 {
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		width += clusterWidth(cluster)
	}
	return width
}

// TruncateWidth cuts s so it occupies at most max columns, never splitting
// a grapheme cluster. A wide cluster that straddles the limit is dropped
// entirely.
func TruncateWidth(s string, max int) string {
	if max <= 0 {
		return ""
	}
	width := 0
	state := -1
	var cluster string
	rest := s
	end := 0
	for len(rest) > 0 {
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		w := clusterWidth(cluster)
		if width+w > max {
			break
		}
		width += w
		end += len(cluster)
	}
	return s[:end]
}

// clusterWidth returns the rendered width of a single grapheme cluster.
// Single-rune clusters defer to runewidth, which respects the East Asian
// ambiguous-width setting; multi-rune clusters (combining sequences, ZWJ
// emoji, flags) are measured as a unit.
func clusterWidth(cluster string) int {
	r, size := utf8.DecodeRuneInString(cluster)
	if size == len(cluster) {
		if r < 0x20 || (r >= 0x7f && r < 0xa0) {
			return 0
		}
		return runewidth.RuneWidth(r)
	}
	return uniseg.StringWidth(cluster)
}
