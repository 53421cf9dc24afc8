package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
)

// MinutesPerDay is the upper bound (exclusive end) for minute-of-day spans.
const MinutesPerDay = 24 * 60

var clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// ToMinutes parses a 24-hour clock string into minutes after midnight.
// Single-digit hours are accepted ("9:30" and "09:30" are equivalent).
func ToMinutes(s string) (int, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid time %q: expected 24h HH:MM", s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return hour*60 + minute, nil
}

// IsValidTime reports whether s is a 24-hour HH:MM clock string.
func IsValidTime(s string) bool {
	return clockPattern.MatchString(s)
}

// FormatMinutes renders minutes after midnight as zero-padded HH:MM.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Overlaps reports whether the half-open spans [startA, endA) and
// [startB, endB) intersect. Spans that merely touch do not overlap, so a
// lesson ending 09:45 never collides with one starting 09:45.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

// ValidateRange checks that a minute-of-day span is inside the day and that
// the start strictly precedes the end.
func ValidateRange(start, end int) error {
	if start < 0 || end > MinutesPerDay {
		return fmt.Errorf("span %d-%d outside the day", start, end)
	}
	if start >= end {
		return fmt.Errorf("start %s must precede end %s", FormatMinutes(start), FormatMinutes(end))
	}
	return nil
}

// IsValidDay reports whether d is a day-of-week index (0 = Sunday).
func IsValidDay(d int) bool {
	return d >= 0 && d <= 6
}
