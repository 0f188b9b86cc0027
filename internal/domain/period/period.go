// Package period models the calendar windows rewards and KPI are computed over.
// A Period is always anchored to the first day of a month; the Type decides how
// wide the window around that anchor is.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Type string

const (
	Monthly   Type = "monthly"
	Quarterly Type = "quarterly"
	Yearly    Type = "yearly"
)

var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidType   = errors.New("invalid period type")
)

var Types = []Type{Monthly, Quarterly, Yearly}

func ParseType(raw string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(raw))); t {
	case Monthly, Quarterly, Yearly:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, raw)
}

func (t Type) Valid() bool {
	switch t {
	case Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// Months is the number of calendar months a window of this type spans.
func (t Type) Months() int {
	switch t {
	case Quarterly:
		return 3
	case Yearly:
		return 12
	default:
		return 1
	}
}

type Period struct {
	Year  int
	Month time.Month
}

func New(year int, month time.Month) Period {
	return FromTime(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC))
}

func FromTime(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Parse accepts YYYY-MM, YYYY-MM-DD or RFC3339 and truncates to month precision.
func Parse(raw string) (Period, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Period{}, fmt.Errorf("%w: empty", ErrInvalidPeriod)
	}
	for _, layout := range []string{"2006-01", "2006-01-02", time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return FromTime(parsed), nil
		}
	}
	if len(value) > len("2006-01-02") {
		if parsed, err := time.Parse("2006-01-02", value[:10]); err == nil {
			return FromTime(parsed), nil
		}
	}
	return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
}

func MustParse(raw string) Period {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Start is the first instant of the anchor month in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) Date() string {
	return p.Start().Format("2006-01-02")
}

func (p Period) AddMonths(n int) Period {
	return FromTime(p.Start().AddDate(0, n, 0))
}

func (p Period) Before(other Period) bool {
	return p.Start().Before(other.Start())
}

func (p Period) After(other Period) bool {
	return p.Start().After(other.Start())
}

// Window returns the half-open interval [from, until) covered by the period
// for the given type: the month itself, its calendar quarter, or its year.
func (p Period) Window(t Type) (from, until time.Time) {
	first := p.first(t)
	return first.Start(), first.AddMonths(t.Months()).Start()
}

// Contains reports whether ts falls inside Window(t).
func (p Period) Contains(t Type, ts time.Time) bool {
	from, until := p.Window(t)
	ts = ts.UTC()
	return !ts.Before(from) && ts.Before(until)
}

// Months expands the window into its constituent monthly periods.
func (p Period) Months(t Type) []Period {
	first := p.first(t)
	out := make([]Period, 0, t.Months())
	for i := 0; i < t.Months(); i++ {
		out = append(out, first.AddMonths(i))
	}
	return out
}

func (p Period) first(t Type) Period {
	switch t {
	case Quarterly:
		return New(p.Year, time.Month((int(p.Month)-1)/3*3+1))
	case Yearly:
		return New(p.Year, time.January)
	default:
		return p
	}
}

// DefaultType derives the granularity of a reward when the caller omits it.
// December closes the year, so it wins over the quarter rule.
func DefaultType(p Period) Type {
	switch p.Month {
	case time.December:
		return Yearly
	case time.March, time.June, time.September:
		return Quarterly
	default:
		return Monthly
	}
}

// Resolve returns t when set and DefaultType(p) otherwise.
func Resolve(p Period, t Type) (Type, error) {
	if t == "" {
		return DefaultType(p), nil
	}
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	return t, nil
}

// Range lists every month from..to inclusive, oldest first.
func Range(from, to Period) []Period {
	var out []Period
	for current := from; !current.After(to); current = current.AddMonths(1) {
		out = append(out, current)
	}
	return out
}
