package budget

import (
	"fmt"
	"time"
)

// YearStart is the first day of a fiscal year.
type YearStart struct {
	Month time.Month
	Day   int
}

// DefaultYearStart begins fiscal years on July 1.
var DefaultYearStart = YearStart{Month: time.July, Day: 1}

// ParseYearStart parses "MM-DD", e.g. "07-01".
func ParseYearStart(s string) (YearStart, error) {
	t, err := time.Parse("01-02", s)
	if err != nil {
		return YearStart{}, fmt.Errorf("parsing fiscal year start %q: %w", s, err)
	}
	// Most years have no February 29.
	if t.Month() == time.February && t.Day() == 29 {
		return YearStart{}, fmt.Errorf("parsing fiscal year start %q: a fiscal year cannot start on February 29", s)
	}
	return YearStart{Month: t.Month(), Day: t.Day()}, nil
}

func (ys YearStart) String() string {
	return fmt.Sprintf("%02d-%02d", int(ys.Month), ys.Day)
}

// YearOf returns the fiscal year containing d. Fiscal year Y starts in
// calendar year Y.
func (ys YearStart) YearOf(d time.Time) int {
	y := d.Year()
	start := time.Date(y, ys.Month, ys.Day, 0, 0, 0, 0, time.UTC)
	day := time.Date(y, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(start) {
		return y - 1
	}
	return y
}

// Range returns the first and last day of fiscal year fy.
func (ys YearStart) Range(fy int) (first, last time.Time) {
	first = time.Date(fy, ys.Month, ys.Day, 0, 0, 0, 0, time.UTC)
	last = first.AddDate(1, 0, -1)
	return first, last
}
