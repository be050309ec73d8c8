package dataset

import (
	"strconv"
	"strings"
	"time"
)

// parseCell infers the typed value of a raw text cell.
func parseCell(raw string, opt Options) Value {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Null()
	}
	if f, ok := parseNumeric(v, opt); ok {
		return Number(f)
	}
	switch strings.ToLower(v) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if opt.ParseDates {
		if t, ok := parseTimeMaybe(v); ok {
			return Timestamp(t)
		}
	}
	return Text(v)
}

// parseTextCell is used for cells already typed as strings (XLSX shared strings).
func parseTextCell(raw string, opt Options) Value {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Null()
	}
	if opt.ParseDates {
		if t, ok := parseTimeMaybe(v); ok {
			return Timestamp(t)
		}
	}
	return Text(v)
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05",
}

func parseTimeMaybe(s string) (time.Time, bool) {
	// cheap reject: every layout starts with a 4-digit year
	if len(s) < 8 || s[0] < '0' || s[0] > '9' {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.ReplaceAll(s, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	thou := opt.ThousandsSeparator
	if thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	// reject forms ParseFloat accepts but a spreadsheet would not call numeric
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.HasPrefix(lower, "0x") || strings.Contains(raw, "_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
