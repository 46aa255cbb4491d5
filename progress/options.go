package progress

import (
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/text/language"

	"github.com/konveyor/progress-logger/progress/units"
)

// Option configures a ProgressLogger during creation.
type Option func(pl *ProgressLogger)

// WithItemName sets the noun describing one item. It is pluralized as needed.
func WithItemName(name string) Option {
	return func(pl *ProgressLogger) {
		pl.itemName = name
	}
}

// WithLogInterval sets the minimum spacing between automatic lines.
func WithLogInterval(interval time.Duration) Option {
	return func(pl *ProgressLogger) {
		pl.throttle.SetInterval(interval)
	}
}

// WithExpectedUpdates sets the expected number of items, enabling the
// percentage done and the time to the end.
func WithExpectedUpdates(n uint64) Option {
	return func(pl *ProgressLogger) {
		pl.SetExpectedUpdates(n)
	}
}

// WithTimeUnit pins the unit of timings and speeds and disables digit
// grouping.
func WithTimeUnit(u units.TimeUnit) Option {
	return func(pl *ProgressLogger) {
		pl.SetTimeUnit(u)
	}
}

// WithLocalSpeed additionally shows the speed over the last log interval.
func WithLocalSpeed() Option {
	return func(pl *ProgressLogger) {
		pl.localSpeed = true
	}
}

// WithMemoryProbe enables memory display using probe.
func WithMemoryProbe(probe MemoryProbe) Option {
	return func(pl *ProgressLogger) {
		pl.memory = probe
	}
}

// WithDisplayMemory enables memory display using a memory.Probe for the
// process selected by WithPID, the current process by default. A probe set
// with WithMemoryProbe takes precedence.
func WithDisplayMemory() Option {
	return func(pl *ProgressLogger) {
		pl.displayMemory = true
	}
}

// WithPID sets the process whose resident memory is displayed. It applies
// to the probe built by WithDisplayMemory or DisplayMemory regardless of the
// order of the options.
func WithPID(pid int) Option {
	return func(pl *ProgressLogger) {
		pl.pid = pid
	}
}

// WithSink sets the destination of lines.
func WithSink(s Sink) Option {
	return func(pl *ProgressLogger) {
		pl.sink = s
	}
}

// WithPluralizer replaces the English pluralizer of the item name.
func WithPluralizer(p Pluralizer) Option {
	return func(pl *ProgressLogger) {
		pl.pluralizer = p
	}
}

// WithGrouper replaces the digit grouping of counts.
func WithGrouper(g Grouper) Option {
	return func(pl *ProgressLogger) {
		pl.grouper = g
	}
}

// WithLocale groups counts following the conventions of tag.
func WithLocale(tag language.Tag) Option {
	return WithGrouper(NewLocaleGrouper(tag))
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(pl *ProgressLogger) {
		pl.clock = c
	}
}

// WithLogger sets the logger used for diagnostics of the logger itself, such
// as memory figures that could not be refreshed. It is not the destination
// of progress lines; see WithSink.
func WithLogger(log logr.Logger) Option {
	return func(pl *ProgressLogger) {
		pl.log = log
	}
}
