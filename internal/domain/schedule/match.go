package schedule

import "time"

// MatchTolerance is the largest distance, in minutes, between a listed clock time and the tick
// that still counts as a match. With ticks on 5-minute boundaries every whole minute of the day
// is within 2 minutes of exactly one tick.
const MatchTolerance = 2

// IsDue is the window matcher: it reports whether now falls inside the item's firing window.
// It never fails; unknown item types are never due.
func IsDue(item Item, now time.Time) bool {
	switch v := item.(type) {
	case *Treatment:
		return TreatmentDue(v, now)
	case *Visit:
		return VisitDue(v, now)
	default:
		return false
	}
}

func TreatmentDue(t *Treatment, now time.Time) bool {
	_, ok := MatchedTime(t, now)
	return ok
}

// MatchedTime returns the listed clock time closest to now that lies within MatchTolerance,
// provided the treatment is in its active window.
func MatchedTime(t *Treatment, now time.Time) (ClockTime, bool) {
	if t == nil || !t.InWindow(now) {
		return ClockTime{}, false
	}
	current := minuteOfDay(now)
	best, bestDiff := ClockTime{}, MatchTolerance+1
	for _, ct := range t.Times {
		diff := ct.MinuteOfDay() - current
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = ct, diff
		}
	}
	return best, bestDiff <= MatchTolerance
}

func VisitDue(v *Visit, now time.Time) bool {
	if v == nil || v.Status != VisitStatusScheduled {
		return false
	}
	// Calendar days, not 24h: DST days are 23h or 25h long.
	reminderDay := StartOfDay(v.VisitAt.In(now.Location())).AddDate(0, 0, -VisitLeadDays)
	return SameDay(reminderDay, now)
}
