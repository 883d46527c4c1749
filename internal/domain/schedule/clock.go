package schedule

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var ErrInvalidClockTime = errors.New("invalid clock time, expected HH:MM")

var clockTimePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)

// ClockTime is a validated time of day with minute precision.
// The zero value is midnight; the only other way to get one is ParseClockTime.
type ClockTime struct {
	minutes int
}

// ParseClockTime accepts "H:MM" or "HH:MM" on a 24-hour clock.
func ParseClockTime(s string) (ClockTime, error) {
	m := clockTimePattern.FindStringSubmatch(s)
	if m == nil {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return ClockTime{minutes: hour*60 + minute}, nil
}

// ParseClockTimes parses every entry, collapsing duplicates and sorting the result.
// Entries that do not parse are returned separately instead of failing the whole set.
func ParseClockTimes(raw []string) (times []ClockTime, invalid []string) {
	seen := make(map[int]struct{}, len(raw))
	for _, s := range raw {
		ct, err := ParseClockTime(s)
		if err != nil {
			invalid = append(invalid, s)
			continue
		}
		if _, dup := seen[ct.minutes]; dup {
			continue
		}
		seen[ct.minutes] = struct{}{}
		times = append(times, ct)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].minutes < times[j].minutes })
	return times, invalid
}

func (c ClockTime) Hour() int   { return c.minutes / 60 }
func (c ClockTime) Minute() int { return c.minutes % 60 }

// MinuteOfDay is the number of minutes since midnight.
func (c ClockTime) MinuteOfDay() int { return c.minutes }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}
