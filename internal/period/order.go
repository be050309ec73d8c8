package period

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Order selects how period keys are sorted for presentation.
type Order string

const (
	// Chronological understands quarter, date, year-month and year keys and
	// falls back to lexical order for anything else. Default.
	Chronological Order = "chronological"
	// Lexical is plain string order with no reformatting.
	Lexical Order = "lexical"
)

// ParseOrder maps a user-supplied name to an Order. Empty selects Chronological.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chronological", "chrono":
		return Chronological, nil
	case "lexical", "lex", "alpha":
		return Lexical, nil
	default:
		return "", fmt.Errorf("unknown period order %q (use chronological|lexical)", s)
	}
}

// Sort returns a sorted copy of keys.
func Sort(keys []string, o Order) []string {
	out := append([]string{}, keys...)
	if o == Lexical {
		sort.Strings(out)
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return chronoLess(out[i], out[j]) })
	return out
}

// chronoLess puts recognized keys before opaque ones; recognized keys compare by
// calendar position, everything else lexically.
func chronoLess(a, b string) bool {
	pa, oka := Recognize(a)
	pb, okb := Recognize(b)
	switch {
	case oka && okb:
		if !pa.equal(pb) {
			return pa.less(pb)
		}
		return a < b
	case oka != okb:
		return oka
	default:
		return a < b
	}
}

// Format renders a key for display. Under Chronological, year-month keys in the
// YYYY_MM form become "Jan 2020"; every other key is returned unchanged.
func Format(key string, o Order) string {
	if o != Chronological {
		return key
	}
	p, ok := Recognize(key)
	if !ok || Strategies[p.Rank].Name != "year-month" || !strings.Contains(key, Separator) {
		return key
	}
	return time.Month(p.Month).String()[:3] + " " + fmt.Sprint(p.Year)
}

// FormatAll applies Format to every key.
func FormatAll(keys []string, o Order) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = Format(k, o)
	}
	return out
}
