package recurrence

import "time"

// DateLayout is the ISO calendar-date layout used for exclusion lists and
// storage keys.
const DateLayout = "2006-01-02"

// Dates expands a weekly series into concrete instants: every occurrence of
// day between start and end (both inclusive, read as calendar dates in loc),
// skipping the excluded calendar dates (YYYY-MM-DD, compared in loc).
//
// Each instant is anchored at 12:00 local time before conversion to UTC.
// Midnight anchoring shifts the date back a day once serialised as UTC in any
// zone ahead of UTC, so noon is used as the canonical intra-day anchor.
func Dates(start, end time.Time, day time.Weekday, excluded []string, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.UTC
	}
	dates := []time.Time{}
	first := midnight(start.In(loc))
	last := midnight(end.In(loc))
	if first.After(last) {
		return dates
	}
	skip := make(map[string]struct{}, len(excluded))
	for _, d := range excluded {
		skip[d] = struct{}{}
	}
	cur := first
	for cur.Weekday() != day {
		cur = cur.AddDate(0, 0, 1)
	}
	for !cur.After(last) {
		if _, ok := skip[cur.Format(DateLayout)]; !ok {
			dates = append(dates, time.Date(cur.Year(), cur.Month(), cur.Day(), 12, 0, 0, 0, loc).UTC())
		}
		cur = cur.AddDate(0, 0, 7)
	}
	return dates
}

// ParseDate reads an ISO calendar date as a noon-anchored UTC instant in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc).UTC(), nil
}

// DateKey returns the calendar date of t in loc as YYYY-MM-DD.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
