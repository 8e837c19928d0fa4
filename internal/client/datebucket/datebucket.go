// Package datebucket maps timestamps to the relative date groups shown in
// the sidebar: Today, Yesterday, Previous 7 Days, Previous 30 Days, a month,
// or Older.
//
// Boundaries are calendar days in the location of "now", not rolling 24 hour
// windows. Months of earlier years carry the year in their label so the
// same month of two different years never collapses into one group.
package datebucket

import (
	"fmt"
	"time"
)

// Kind is the category of a bucket, in display order.
type Kind int

const (
	Today Kind = iota
	Yesterday
	Previous7Days
	Previous30Days
	Month
	Older
)

// MonthsBack is how many calendar months before the current one still get
// their own month group.
const MonthsBack = 11

var fixedLabels = map[Kind]string{
	Today:          "Today",
	Yesterday:      "Yesterday",
	Previous7Days:  "Previous 7 Days",
	Previous30Days: "Previous 30 Days",
	Older:          "Older",
}

// Bucket is a display group. Month is set only for Kind == Month and holds
// the first day of that month.
type Bucket struct {
	Kind  Kind
	Label string
	Month time.Time
}

// For returns the bucket of ts relative to now.
func For(ts, now time.Time) Bucket {
	loc := now.Location()
	ts = ts.In(loc)

	days := daysBetween(ts, now)
	switch {
	case days <= 0:
		return fixed(Today)
	case days == 1:
		return fixed(Yesterday)
	case days <= 7:
		return fixed(Previous7Days)
	case days <= 30:
		return fixed(Previous30Days)
	}

	months := (now.Year()-ts.Year())*12 + int(now.Month()) - int(ts.Month())
	if months > MonthsBack {
		return fixed(Older)
	}

	label := ts.Month().String()
	if ts.Year() != now.Year() {
		label = fmt.Sprintf("%s %d", label, ts.Year())
	}
	return Bucket{
		Kind:  Month,
		Label: label,
		Month: time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, loc),
	}
}

// Label is a shortcut for For(ts, now).Label.
func Label(ts, now time.Time) string {
	return For(ts, now).Label
}

// Less orders buckets for display: fixed kinds first, then months newest
// first, then Older.
func Less(a, b Bucket) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Kind == Month {
		return a.Month.After(b.Month)
	}
	return false
}

func fixed(k Kind) Bucket {
	return Bucket{Kind: k, Label: fixedLabels[k]}
}

// daysBetween counts calendar days from ts to now. Both dates are projected
// to UTC midnight so DST shifts do not produce 23 or 25 hour days.
func daysBetween(ts, now time.Time) int {
	a := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
