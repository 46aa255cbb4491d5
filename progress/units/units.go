// Package units selects readable time and rate units for progress output.
//
// The ladder of units is closed: nanoseconds through days. Time-per-item and
// items-per-time are selected independently because their natural scales
// differ, e.g. "2.00 ms/item, 500.00 items/s".
package units

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// TimeUnit is a step of the time unit ladder.
type TimeUnit int

const (
	Nanoseconds TimeUnit = iota
	Microseconds
	Milliseconds
	Seconds
	Minutes
	Hours
	Days
)

// Ladder lists every unit from the smallest to the largest.
var Ladder = []TimeUnit{
	Nanoseconds,
	Microseconds,
	Milliseconds,
	Seconds,
	Minutes,
	Hours,
	Days,
}

// Label returns the short label used in rendered rates.
func (u TimeUnit) Label() string {
	switch u {
	case Nanoseconds:
		return "ns"
	case Microseconds:
		return "μs"
	case Milliseconds:
		return "ms"
	case Seconds:
		return "s"
	case Minutes:
		return "m"
	case Hours:
		return "h"
	case Days:
		return "d"
	}
	return ""
}

// Seconds returns the length of the unit in seconds.
func (u TimeUnit) Seconds() float64 {
	switch u {
	case Nanoseconds:
		return 1e-9
	case Microseconds:
		return 1e-6
	case Milliseconds:
		return 1e-3
	case Seconds:
		return 1
	case Minutes:
		return 60
	case Hours:
		return 60 * 60
	case Days:
		return 24 * 60 * 60
	}
	return 0
}

func (u TimeUnit) String() string {
	return u.Label()
}

// ParseTimeUnit accepts either a label ("ms", "us", "μs") or a long name
// ("milliseconds").
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ns", "nanosecond", "nanoseconds":
		return Nanoseconds, nil
	case "us", "μs", "microsecond", "microseconds":
		return Microseconds, nil
	case "ms", "millisecond", "milliseconds":
		return Milliseconds, nil
	case "s", "sec", "second", "seconds":
		return Seconds, nil
	case "m", "min", "minute", "minutes":
		return Minutes, nil
	case "h", "hour", "hours":
		return Hours, nil
	case "d", "day", "days":
		return Days, nil
	}
	return 0, fmt.Errorf("unknown time unit %q", s)
}

// NiceTimeUnit returns the largest unit in which secondsPerItem is at least
// one. Values below a nanosecond fall back to nanoseconds.
func NiceTimeUnit(secondsPerItem float64) TimeUnit {
	for i := len(Ladder) - 1; i >= 0; i-- {
		if secondsPerItem >= Ladder[i].Seconds() {
			return Ladder[i]
		}
	}
	return Nanoseconds
}

// NiceSpeedUnit returns the smallest unit in which at least one item is
// processed. Activities slower than one item per day fall back to days.
func NiceSpeedUnit(secondsPerItem float64) TimeUnit {
	for _, u := range Ladder {
		if u.Seconds() >= secondsPerItem {
			return u
		}
	}
	return Days
}

const (
	msPerSecond = 1000
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// PrettyPrint renders a millisecond count as a compound duration. Below one
// second it shows milliseconds, below one minute fractional seconds, and
// above that days, hours, minutes and seconds with leading zero components
// omitted.
func PrettyPrint(millis uint64) string {
	if millis < msPerSecond {
		return fmt.Sprintf("%dms", millis)
	}
	if millis < msPerMinute {
		return fmt.Sprintf("%.2fs", float64(millis)/msPerSecond)
	}

	days := millis / msPerDay
	hours := millis % msPerDay / msPerHour
	minutes := millis % msPerHour / msPerMinute
	seconds := millis % msPerMinute / msPerSecond

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if days > 0 || hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	fmt.Fprintf(&b, "%dm %ds", minutes, seconds)
	return b.String()
}

// HumanizeBytes formats n with a binary magnitude suffix, e.g. "1.5 GiB".
func HumanizeBytes(n uint64) string {
	return humanize.IBytes(n)
}
