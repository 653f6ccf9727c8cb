package notes

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateMatcher recognizes one textual date format. Match receives the token
// with surrounding punctuation already stripped.
type DateMatcher struct {
	Name    string
	pattern *regexp.Regexp
	build   func(parts []string, year int) (y, m, d int, ok bool)
}

// Match reports the calendar date a stripped token denotes. currentYear is
// used by formats that omit the year.
func (m DateMatcher) Match(s string, currentYear int, loc *time.Location) (time.Time, bool) {
	parts := m.pattern.FindStringSubmatch(s)
	if parts == nil {
		return time.Time{}, false
	}
	y, mo, d, ok := m.build(parts, currentYear)
	if !ok {
		return time.Time{}, false
	}
	return civilDate(y, mo, d, loc)
}

var (
	// YearFirst matches YYYY-MM-DD and YYYY/MM/DD.
	YearFirst = DateMatcher{
		Name:    "year-first",
		pattern: regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`),
		build: func(p []string, _ int) (int, int, int, bool) {
			return atoi(p[1]), atoi(p[2]), atoi(p[3]), true
		},
	}

	// MonthDayYear matches MM-DD-YYYY, MM/DD/YYYY, MM-DD-YY and MM/DD/YY.
	MonthDayYear = DateMatcher{
		Name:    "month-day-year",
		pattern: regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4}|\d{2})$`),
		build: func(p []string, _ int) (int, int, int, bool) {
			return expandYear(p[3]), atoi(p[1]), atoi(p[2]), true
		},
	}

	// MonthDay matches MM/DD and MM-DD in the current year.
	MonthDay = DateMatcher{
		Name:    "month-day",
		pattern: regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})$`),
		build: func(p []string, year int) (int, int, int, bool) {
			return year, atoi(p[1]), atoi(p[2]), true
		},
	}

	// DayMonthDotted matches D.M and D.M.Y.
	DayMonthDotted = DateMatcher{
		Name:    "day-month-dotted",
		pattern: regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})(?:\.(\d{4}|\d{2}))?$`),
		build: func(p []string, year int) (int, int, int, bool) {
			if p[3] != "" {
				year = expandYear(p[3])
			}
			return year, atoi(p[2]), atoi(p[1]), true
		},
	}
)

// DefaultMatchers is the recognition order. The first match wins, so
// MonthDay must stay after MonthDayYear.
var DefaultMatchers = []DateMatcher{YearFirst, MonthDayYear, MonthDay, DayMonthDotted}

// DateParser recognizes date tokens in notes.
type DateParser struct {
	Matchers []DateMatcher
	Location *time.Location
	Now      func() time.Time
}

// NewDateParser returns a parser using DefaultMatchers. A nil location means
// UTC.
func NewDateParser(loc *time.Location) *DateParser {
	if loc == nil {
		loc = time.UTC
	}
	return &DateParser{Matchers: DefaultMatchers, Location: loc, Now: time.Now}
}

// Parse returns the date a token denotes. Tokens without a digit are never
// dates.
func (p *DateParser) Parse(token string) (time.Time, bool) {
	if !strings.ContainsAny(token, "0123456789") {
		return time.Time{}, false
	}
	s := strings.TrimFunc(token, func(r rune) bool { return !isDateRune(r) })
	if t, ok := p.match(s); ok {
		return t, true
	}
	// "Visited 3/5." ends a sentence with the date.
	if trimmed := strings.Trim(s, ".-/"); trimmed != s {
		return p.match(trimmed)
	}
	return time.Time{}, false
}

func (p *DateParser) match(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	year := p.now().In(p.loc()).Year()
	for _, m := range p.matchers() {
		if t, ok := m.Match(s, year, p.loc()); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func (p *DateParser) matchers() []DateMatcher {
	if len(p.Matchers) == 0 {
		return DefaultMatchers
	}
	return p.Matchers
}

func (p *DateParser) loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

func (p *DateParser) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func isDateRune(r rune) bool {
	return (r >= '0' && r <= '9') || r == '-' || r == '/' || r == '.'
}

// civilDate rejects dates time.Date would normalize, such as 2/30.
func civilDate(y, m, d int, loc *time.Location) (time.Time, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		y += 2000
	}
	return y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
