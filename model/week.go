package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// WEEK - ISO 8601 week, written as YYYY-Www
// =============================================================================

// Week identifies an ISO week. Entities keep weeks as strings; Week is for
// comparing and labelling them.
type Week struct {
	Year   int
	Number int
}

// ParseWeek parses "2024-W10". The week number must exist in that ISO year.
func ParseWeek(s string) (Week, error) {
	year, num, ok := strings.Cut(strings.TrimSpace(s), "-W")
	if !ok || len(year) != 4 || len(num) != 2 {
		return Week{}, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Week{}, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 1 || n > WeeksInYear(y) {
		return Week{}, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
	}
	return Week{Year: y, Number: n}, nil
}

// WeekOf returns the ISO week containing t.
func WeekOf(t time.Time) Week {
	y, n := t.ISOWeek()
	return Week{Year: y, Number: n}
}

// WeeksInYear returns 52 or 53. December 28th is always in the last ISO week.
func WeeksInYear(year int) int {
	_, n := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return n
}

func (w Week) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Number)
}

func (w Week) IsZero() bool { return w.Year == 0 && w.Number == 0 }

// Monday returns the first day of the week in UTC.
func (w Week) Monday() time.Time {
	// January 4th is always in week 1.
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1 := jan4.AddDate(0, 0, -offset)
	return week1.AddDate(0, 0, (w.Number-1)*7)
}

// Label formats the week's Monday the way report charts show it ("Mar 4").
func (w Week) Label() string {
	return w.Monday().Format("Jan 2")
}

// Compare returns -1, 0 or 1.
func (w Week) Compare(other Week) int {
	switch {
	case w.Year < other.Year:
		return -1
	case w.Year > other.Year:
		return 1
	case w.Number < other.Number:
		return -1
	case w.Number > other.Number:
		return 1
	}
	return 0
}

func (w Week) Before(other Week) bool { return w.Compare(other) < 0 }
func (w Week) After(other Week) bool  { return w.Compare(other) > 0 }
