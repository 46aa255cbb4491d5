package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/konveyor/progress-logger/progress/units"
)

// etaDamping is added to the count when projecting the time to the end. It
// avoids a division by zero before the first item and damps early estimates.
const etaDamping = 1

// NotStartedMessage is the rendering of a logger that was never started.
const NotStartedMessage = "ProgressLogger not started"

// Snapshot is a plain copy of the state of a ProgressLogger at an instant,
// holding everything needed to render a line.
type Snapshot struct {
	State State
	Count uint64

	// Elapsed is measured up to the snapshot instant while running and up
	// to the stop instant once stopped.
	Elapsed time.Duration

	ExpectedUpdates uint64
	HasExpected     bool

	// LocalElapsed and LocalCount cover the time and items since the last
	// emitted line. They are only set when local speed is enabled.
	LocalElapsed time.Duration
	LocalCount   uint64
	LocalSpeed   bool

	// Memory is nil unless memory display is enabled.
	Memory *MemoryStats
}

// MemoryStats holds the figures of a MemoryProbe as of its last refresh.
type MemoryStats struct {
	Resident   uint64
	ResidentOK bool
	Available  uint64
	Free       uint64
	Total      uint64
}

// Snapshot captures the state of the logger now. It does not refresh memory
// figures.
func (pl *ProgressLogger) Snapshot() Snapshot {
	return pl.snapshot(pl.clock.Now())
}

func (pl *ProgressLogger) snapshot(now time.Time) Snapshot {
	s := Snapshot{
		State:           pl.state,
		Count:           pl.count,
		ExpectedUpdates: pl.expectedUpdates,
		HasExpected:     pl.hasExpected,
	}

	switch pl.state {
	case Running:
		s.Elapsed = now.Sub(pl.startTime)
		if pl.localSpeed {
			s.LocalSpeed = true
			s.LocalElapsed = now.Sub(pl.throttle.LastLogTime())
			s.LocalCount = pl.count - pl.throttle.LastCount()
		}
	case Stopped:
		s.Elapsed = pl.stopTime.Sub(pl.startTime)
	}

	if pl.memory != nil {
		rss, ok := pl.memory.ResidentBytes(pl.pid)
		s.Memory = &MemoryStats{
			Resident:   rss,
			ResidentOK: ok,
			Available:  pl.memory.AvailableBytes(),
			Free:       pl.memory.FreeBytes(),
			Total:      pl.memory.TotalBytes(),
		}
	}
	return s
}

// String renders the logger as of now. It never changes the state of the
// logger, so it does not affect when the next line is due.
func (pl *ProgressLogger) String() string {
	return pl.Render(pl.Snapshot())
}

// Render renders a snapshot with the item name, units and grouping of the
// logger.
func (pl *ProgressLogger) Render(s Snapshot) string {
	if s.State == NotStarted {
		return NotStartedMessage
	}

	var b strings.Builder
	count := pl.formatCount(s.Count)
	items := pl.pluralizer.Pluralize(pl.itemName, clampInt(s.Count), false)

	if s.State == Stopped {
		fmt.Fprintf(&b, "Elapsed: %s", units.PrettyPrint(millis(s.Elapsed)))
		if s.Count != 0 {
			fmt.Fprintf(&b, " [%s %s, ", count, items)
			pl.writeTimingSpeed(&b, secondsPerItem(s.Elapsed, s.Count))
			b.WriteString("]")
		}
	} else {
		fmt.Fprintf(&b, "%s %s, %s", count, items, units.PrettyPrint(millis(s.Elapsed)))
		if s.Count != 0 {
			b.WriteString(", ")
			pl.writeTimingSpeed(&b, secondsPerItem(s.Elapsed, s.Count))
		}

		if s.HasExpected {
			fmt.Fprintf(&b, "; %.2f%% done, %s to end",
				percentDone(s.Count, s.ExpectedUpdates),
				units.PrettyPrint(millisToEnd(s.Elapsed, s.Count, s.ExpectedUpdates)))
		}

		// No items since the last line means there is no speed to show.
		if s.LocalSpeed && s.LocalCount != 0 {
			b.WriteString(" [")
			pl.writeTimingSpeed(&b, secondsPerItem(s.LocalElapsed, s.LocalCount))
			b.WriteString("]")
		}
	}

	if m := s.Memory; m != nil {
		resident := "N/A"
		if m.ResidentOK {
			resident = units.HumanizeBytes(m.Resident)
		}
		fmt.Fprintf(&b, "; used/avail/free/total mem %s/%s/%s/%s",
			resident,
			units.HumanizeBytes(m.Available),
			units.HumanizeBytes(m.Free),
			units.HumanizeBytes(m.Total))
	}

	return b.String()
}

// writeTimingSpeed writes "<time> <unit>/<item>, <speed> <items>/<unit>".
func (pl *ProgressLogger) writeTimingSpeed(b *strings.Builder, secondsPerItem float64) {
	itemsPerSecond := 1 / secondsPerItem

	timingUnit, speedUnit := pl.timeUnit, pl.timeUnit
	if !pl.hasTimeUnit {
		timingUnit = units.NiceTimeUnit(secondsPerItem)
		speedUnit = units.NiceSpeedUnit(secondsPerItem)
	}

	fmt.Fprintf(b, "%.2f %s/%s, %.2f %s/%s",
		secondsPerItem/timingUnit.Seconds(),
		timingUnit.Label(),
		pl.itemName,
		itemsPerSecond*speedUnit.Seconds(),
		pl.pluralizer.Pluralize(pl.itemName, 2, false),
		speedUnit.Label())
}

func (pl *ProgressLogger) formatCount(n uint64) string {
	if pl.hasTimeUnit {
		return fmt.Sprintf("%d", n)
	}
	return pl.grouper.Group(n)
}

// secondsPerItem treats a non-positive elapsed time as one nanosecond, so
// the speed stays finite. count must not be zero.
func secondsPerItem(elapsed time.Duration, count uint64) float64 {
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	return elapsed.Seconds() / float64(count)
}

func percentDone(count, expected uint64) float64 {
	if expected == 0 {
		return 100
	}
	return 100 * float64(count) / float64(expected)
}

func millisToEnd(elapsed time.Duration, count, expected uint64) uint64 {
	if count >= expected {
		return 0
	}
	remaining := float64(expected - count)
	return uint64(remaining * float64(millis(elapsed)) / float64(count+etaDamping))
}

func millis(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d.Milliseconds())
}

func clampInt(n uint64) int {
	const maxInt = int(^uint(0) >> 1)
	if n > uint64(maxInt) {
		return maxInt
	}
	return int(n)
}
