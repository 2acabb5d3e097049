// Package agecalc converts between hatch dates, target dates and flock ages.
package agecalc

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the only accepted date representation: YYYY-MM-DD.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// maxDate is the last date DateLayout can represent with a four-digit year.
var maxDate = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

var (
	// ErrInvalidFormat indicates an unparseable date or a non-integer age component.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInvalidRange indicates the target date precedes the hatch date.
	ErrInvalidRange = errors.New("target date precedes hatch date")
)

// AgeResult is the elapsed age of a flock at a target date.
type AgeResult struct {
	TotalDays int `json:"total_days"`
	Weeks     int `json:"weeks"`
	ExtraDays int `json:"extra_days"`
}

// String renders the age as "10w 4d".
func (a AgeResult) String() string {
	return fmt.Sprintf("%dw %dd", a.Weeks, a.ExtraDays)
}

// DateResult is the calendar date at which a flock reaches a target age.
type DateResult struct {
	TargetDate time.Time `json:"-"`
	TotalDays  int       `json:"total_days"`
}

// TargetDateString returns the target date in DateLayout.
func (d DateResult) TargetDateString() string {
	return d.TargetDate.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time. Surrounding
// whitespace is rejected; callers trim user input themselves.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidFormat)
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidFormat, value)
	}
	return t, nil
}

// ParseAgeComponent parses a week or day count, which must be a non-negative integer.
func ParseAgeComponent(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidFormat, value)
	}
	return n, nil
}

// AgeFromDates computes the age of a flock hatched on hatch, observed on target.
func AgeFromDates(hatch, target time.Time) (AgeResult, error) {
	total := daysBetween(hatch, target)
	if total < 0 {
		return AgeResult{}, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, target.Format(DateLayout), hatch.Format(DateLayout))
	}
	return AgeResult{TotalDays: total, Weeks: total / 7, ExtraDays: total % 7}, nil
}

// AgeFromStrings parses both dates and delegates to AgeFromDates.
func AgeFromStrings(hatch, target string) (AgeResult, error) {
	h, err := ParseDate(hatch)
	if err != nil {
		return AgeResult{}, fmt.Errorf("hatch date: %w", err)
	}
	t, err := ParseDate(target)
	if err != nil {
		return AgeResult{}, fmt.Errorf("target date: %w", err)
	}
	return AgeFromDates(h, t)
}

// DateFromAge returns the date a flock hatched on hatch reaches weeks*7+days days of age.
// Ages whose target falls after 9999-12-31 are rejected before weeks*7+days is computed.
func DateFromAge(hatch time.Time, weeks, days int) (DateResult, error) {
	if weeks < 0 || days < 0 {
		return DateResult{}, fmt.Errorf("%w: weeks and days must be non-negative (got %d, %d)", ErrInvalidFormat, weeks, days)
	}
	limit := daysBetween(hatch, maxDate)
	if days > limit || weeks > (limit-days)/7 {
		return DateResult{}, fmt.Errorf("%w: %dw %dd after %s falls past %s",
			ErrInvalidFormat, weeks, days, civil(hatch).Format(DateLayout), maxDate.Format(DateLayout))
	}
	total := weeks*7 + days
	return DateResult{TargetDate: civil(hatch).AddDate(0, 0, total), TotalDays: total}, nil
}

// Today returns the current calendar date in loc as a UTC midnight time.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// civil drops the clock and zone, keeping the calendar date.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int((civil(to).Unix() - civil(from).Unix()) / secondsPerDay)
}
