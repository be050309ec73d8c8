package dataset

import (
	"math"
	"strconv"
	"time"
)

// Kind is the underlying type of a cell value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindTime
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Value is a single typed cell. Only the field matching Kind is meaningful.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Time time.Time
	Bool bool
}

func Null() Value { return Value{} }
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func Text(s string) Value { return Value{Kind: KindText, Str: s} }
func Timestamp(t time.Time) Value { return Value{Kind: KindTime, Time: t} }
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// String returns the canonical string form used for categorical columns and period keys.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Num)
	case KindText:
		return v.Str
	case KindTime:
		return formatTime(v.Time)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
