package progress

import (
	"os"
	"sync"
	"time"

	"github.com/gertd/go-pluralize"
	"github.com/go-logr/logr"
	"golang.org/x/text/language"

	"github.com/konveyor/progress-logger/progress/memory"
	"github.com/konveyor/progress-logger/progress/sink"
	"github.com/konveyor/progress-logger/progress/units"
)

const (
	// LightUpdateMask selects the calls of LightUpdate that read the clock:
	// only those after which the count is a multiple of LightUpdateMask+1.
	LightUpdateMask uint64 = 1<<20 - 1

	// DefaultLogInterval is the minimum spacing between automatic lines.
	DefaultLogInterval = 10 * time.Second

	// DefaultItemName is the noun used for items unless configured.
	DefaultItemName = "item"

	// CompletedMessage is logged by Done before the final stats.
	CompletedMessage = "Completed."
)

var defaultPluralizer = sync.OnceValue(func() Pluralizer {
	return pluralize.NewClient()
})

// ProgressLogger tracks the progress of an activity and logs it periodically.
//
// Lifecycle:
//  1. Create with New() and options (WithItemName, WithLogInterval, ...)
//  2. Start the activity, which resets the count and timestamps
//  3. Call Update (or a variant) once per item; lines are emitted at most
//     once per log interval
//  4. Stop or Done freezes the timing; Start may be called again to
//     measure another activity
//
// The zero value is not usable; use New.
type ProgressLogger struct {
	itemName string

	expectedUpdates uint64
	hasExpected     bool

	timeUnit    units.TimeUnit
	hasTimeUnit bool

	localSpeed bool

	state     State
	startTime time.Time
	stopTime  time.Time
	count     uint64
	throttle  Throttle

	memory        MemoryProbe
	displayMemory bool
	pid           int

	sink       Sink
	pluralizer Pluralizer
	grouper    Grouper
	clock      Clock
	log        logr.Logger
}

// New creates a ProgressLogger that has not been started.
//
// Defaults:
//   - item name "item", log interval 10s
//   - lines go to sink.Default() (stderr)
//   - counts are grouped following English conventions
func New(opts ...Option) *ProgressLogger {
	pl := &ProgressLogger{
		itemName: DefaultItemName,
		throttle: NewThrottle(DefaultLogInterval),
		pid:      os.Getpid(),
		clock:    systemClock{},
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(pl)
	}
	if pl.displayMemory {
		pl.DisplayMemory()
	}
	if pl.sink == nil {
		pl.sink = sink.Default()
	}
	if pl.pluralizer == nil {
		pl.pluralizer = defaultPluralizer()
	}
	if pl.grouper == nil {
		pl.grouper = NewLocaleGrouper(language.English)
	}
	return pl
}

// Start begins a new activity and logs msg. It may be called in any state;
// the count, the stop time and the throttling window are reset.
func (pl *ProgressLogger) Start(msg string) {
	now := pl.clock.Now()
	pl.state = Running
	pl.startTime = now
	pl.stopTime = time.Time{}
	pl.count = 0
	pl.throttle.Reset(now)
	pl.sink.Info(msg)
}

// Update increases the count by one and logs if a line is due.
func (pl *ProgressLogger) Update() {
	pl.count++
	pl.logIfDue()
}

// UpdateWithCount increases the count by n and logs if a line is due.
func (pl *ProgressLogger) UpdateWithCount(n uint64) {
	pl.count += n
	pl.logIfDue()
}

// LightUpdate increases the count by one. Only when the count becomes a
// multiple of LightUpdateMask+1 does it read the clock and check whether a
// line is due, so a line may be late by up to LightUpdateMask items. Use it
// only when that delay is acceptable.
func (pl *ProgressLogger) LightUpdate() {
	pl.count++
	if pl.count&LightUpdateMask == 0 {
		pl.logIfDue()
	}
}

// UpdateAndDisplay increases the count by one and logs a line regardless of
// the log interval.
func (pl *ProgressLogger) UpdateAndDisplay() {
	pl.count++
	pl.emit(pl.clock.Now())
}

// Stop freezes the timing of a running activity and clears the expected
// number of updates. Stopping an activity that is not running only clears
// the expected number of updates.
func (pl *ProgressLogger) Stop() {
	if pl.state == Running {
		pl.stopTime = pl.clock.Now()
		pl.state = Stopped
	}
	pl.hasExpected = false
	pl.expectedUpdates = 0
}

// Done stops the activity, logs "Completed." and then the final stats.
func (pl *ProgressLogger) Done() {
	pl.Stop()
	pl.sink.Info(CompletedMessage)
	pl.Refresh()
	pl.sink.Info(pl.String())
}

// DoneWithCount sets the count to n and then behaves like Done. Use it to
// replace an approximate count with the exact one, or to report the number of
// items when the logger was used as a plain timer.
func (pl *ProgressLogger) DoneWithCount(n uint64) {
	pl.count = n
	pl.Done()
}

// Elapsed returns the time since the activity was started. The second result
// is false if the logger was never started.
func (pl *ProgressLogger) Elapsed() (time.Duration, bool) {
	if pl.state == NotStarted {
		return 0, false
	}
	return pl.clock.Now().Sub(pl.startTime), true
}

// DisplayMemory enables memory figures on every line, reading them from a
// memory.Probe for the process set with WithPID, the current process by
// default. A probe set with WithMemoryProbe is kept. It returns the logger
// for chaining.
func (pl *ProgressLogger) DisplayMemory() *ProgressLogger {
	pl.displayMemory = true
	if pl.memory == nil {
		pl.memory = memory.NewProbeForPID(pl.pid)
	}
	return pl
}

// Refresh updates the memory figures if memory display is enabled. Lines
// logged automatically are refreshed already; call it before String when
// rendering the logger yourself.
func (pl *ProgressLogger) Refresh() {
	if pl.memory == nil {
		return
	}
	if err := pl.memory.Refresh(); err != nil {
		pl.log.V(5).Info("unable to refresh memory figures", "error", err)
	}
}

func (pl *ProgressLogger) logIfDue() {
	if pl.state != Running {
		return
	}
	if now := pl.clock.Now(); pl.throttle.Due(now) {
		pl.emit(now)
	}
}

func (pl *ProgressLogger) emit(now time.Time) {
	pl.Refresh()
	pl.sink.Info(pl.Render(pl.snapshot(now)))
	pl.throttle.MarkEmitted(now, pl.count)
}

// State returns the current lifecycle state.
func (pl *ProgressLogger) State() State { return pl.state }

// Count returns the number of items counted since the last Start.
func (pl *ProgressLogger) Count() uint64 { return pl.count }

// ItemName returns the noun describing one item.
func (pl *ProgressLogger) ItemName() string { return pl.itemName }

// SetItemName changes the noun describing one item.
func (pl *ProgressLogger) SetItemName(name string) { pl.itemName = name }

// LogInterval returns the minimum spacing between automatic lines.
func (pl *ProgressLogger) LogInterval() time.Duration { return pl.throttle.Interval() }

// SetLogInterval changes the minimum spacing between lines, starting from the
// next emitted line.
func (pl *ProgressLogger) SetLogInterval(interval time.Duration) {
	pl.throttle.SetInterval(interval)
}

// ExpectedUpdates returns the expected number of updates, if set.
func (pl *ProgressLogger) ExpectedUpdates() (uint64, bool) {
	return pl.expectedUpdates, pl.hasExpected
}

// SetExpectedUpdates enables the percentage done and the time to the end.
func (pl *ProgressLogger) SetExpectedUpdates(n uint64) {
	pl.expectedUpdates = n
	pl.hasExpected = true
}

// ClearExpectedUpdates removes the percentage done and the time to the end.
func (pl *ProgressLogger) ClearExpectedUpdates() {
	pl.expectedUpdates = 0
	pl.hasExpected = false
}

// TimeUnit returns the fixed time unit, if set.
func (pl *ProgressLogger) TimeUnit() (units.TimeUnit, bool) {
	return pl.timeUnit, pl.hasTimeUnit
}

// SetTimeUnit pins the unit used for timings and speeds and disables digit
// grouping of the count, so lines can be parsed by scripts.
func (pl *ProgressLogger) SetTimeUnit(u units.TimeUnit) {
	pl.timeUnit = u
	pl.hasTimeUnit = true
}

// ClearTimeUnit restores automatic unit selection and digit grouping.
func (pl *ProgressLogger) ClearTimeUnit() {
	pl.timeUnit = 0
	pl.hasTimeUnit = false
}

// SetLocalSpeed toggles the additional speed over the last log interval.
func (pl *ProgressLogger) SetLocalSpeed(enabled bool) { pl.localSpeed = enabled }
