package xp

import (
	"fmt"
	"time"
)

// StreakTransition classifies how a new completion relates to the previous one.
type StreakTransition string

const (
	StreakReset   StreakTransition = "RESET"
	StreakSameDay StreakTransition = "SAME_DAY"
	StreakNextDay StreakTransition = "NEXT_DAY"
)

// Next returns the streak length after applying the transition to current.
func (t StreakTransition) Next(current int) int {
	switch t {
	case StreakSameDay:
		return current
	case StreakNextDay:
		return current + 1
	default:
		return 1
	}
}

// ValidateInstant rejects instants that cannot be stored as a calendar timestamp.
func ValidateInstant(t time.Time) error {
	if y := t.Year(); y < 1 || y > 9999 {
		return fmt.Errorf("%w: %s", ErrInvalidTimestamp, t.String())
	}
	return nil
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayWindow returns [midnight, next midnight) around t. The window is built from
// calendar dates so it is 23 or 25 hours long on DST switch days.
func DayWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := StartOfDay(t, loc)
	return start, start.AddDate(0, 0, 1)
}

// DaysBetween counts calendar days from a to b in loc, ignoring time of day.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	a, b = a.In(loc), b.In(loc)
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// ClassifyStreakTransition compares the calendar day of last with now.
func ClassifyStreakTransition(last *time.Time, now time.Time, loc *time.Location) StreakTransition {
	if last == nil {
		return StreakReset
	}
	switch DaysBetween(*last, now, loc) {
	case 0:
		return StreakSameDay
	case 1:
		return StreakNextDay
	default:
		return StreakReset
	}
}
