package period

import (
	"regexp"
	"strconv"
)

// Strategy recognizes one family of period keys and maps them onto a calendar position.
type Strategy struct {
	Name string
	re   *regexp.Regexp
	// parse converts submatches into (year, month, day). ok=false rejects the match.
	parse func(m []string) (year, month, day int, ok bool)
}

// Point is the calendar position of a recognized key.
type Point struct {
	Year, Month, Day int
	// Rank is the priority of the matching strategy; lower wins ties.
	Rank int
}

// Strategies are tried in this order; the first match wins.
var Strategies = []Strategy{
	{
		Name: "quarter",
		re:   regexp.MustCompile(`^Q([1-4])[- ](\d{4})$`),
		parse: func(m []string) (int, int, int, bool) {
			q, _ := strconv.Atoi(m[1])
			y, _ := strconv.Atoi(m[2])
			return y, (q-1)*3 + 1, 1, true
		},
	},
	{
		Name: "date",
		re:   regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`),
		parse: func(m []string) (int, int, int, bool) {
			y, _ := strconv.Atoi(m[1])
			mo, _ := strconv.Atoi(m[2])
			d, _ := strconv.Atoi(m[3])
			return y, mo, d, validMonth(mo) && d >= 1 && d <= 31
		},
	},
	{
		Name: "year-month",
		re:   regexp.MustCompile(`^(\d{4})[_-](\d{1,2})$`),
		parse: func(m []string) (int, int, int, bool) {
			y, _ := strconv.Atoi(m[1])
			mo, _ := strconv.Atoi(m[2])
			return y, mo, 1, validMonth(mo)
		},
	},
	{
		Name: "year",
		re:   regexp.MustCompile(`^(\d{4})$`),
		parse: func(m []string) (int, int, int, bool) {
			y, _ := strconv.Atoi(m[1])
			return y, 1, 1, true
		},
	},
}

func validMonth(m int) bool { return m >= 1 && m <= 12 }

// Recognize returns the calendar position of key, or ok=false for opaque keys.
func Recognize(key string) (Point, bool) {
	for rank, s := range Strategies {
		m := s.re.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		y, mo, d, ok := s.parse(m)
		if !ok {
			continue
		}
		return Point{Year: y, Month: mo, Day: d, Rank: rank}, true
	}
	return Point{}, false
}

func (p Point) less(o Point) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	if p.Month != o.Month {
		return p.Month < o.Month
	}
	if p.Day != o.Day {
		return p.Day < o.Day
	}
	return p.Rank < o.Rank
}

func (p Point) equal(o Point) bool {
	return p.Year == o.Year && p.Month == o.Month && p.Day == o.Day && p.Rank == o.Rank
}
