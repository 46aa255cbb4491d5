package progress

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// State is the lifecycle phase of a ProgressLogger.
//
// States occur in the sequence:
//  1. NotStarted - created, Start not yet called
//  2. Running - counting items, timing up to the present
//  3. Stopped - timing frozen at the stop instant until the next Start
type State int

const (
	NotStarted State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Sink receives rendered lines at informational severity. See package sink
// for adapters to logging backends.
type Sink interface {
	Info(line string)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(line string)

func (f SinkFunc) Info(line string) {
	f(line)
}

// MemoryProbe reports memory figures as of its last Refresh.
//
// ResidentBytes must return false, rather than fail, when the process cannot
// be resolved.
type MemoryProbe interface {
	Refresh() error
	ResidentBytes(pid int) (uint64, bool)
	AvailableBytes() uint64
	FreeBytes() uint64
	TotalBytes() uint64
}

// Pluralizer returns the singular or plural form of word for count. When
// inclusive is true the count is prepended.
type Pluralizer interface {
	Pluralize(word string, count int, inclusive bool) string
}

// Grouper formats an item count with digit grouping.
type Grouper interface {
	Group(n uint64) string
}

// LocaleGrouper groups digits following the conventions of a locale, e.g.
// "1,000,000" in English and "1.000.000" in German.
type LocaleGrouper struct {
	printer *message.Printer
}

func NewLocaleGrouper(tag language.Tag) *LocaleGrouper {
	return &LocaleGrouper{printer: message.NewPrinter(tag)}
}

func (g *LocaleGrouper) Group(n uint64) string {
	return g.printer.Sprintf("%d", n)
}

// Clock is the source of the current instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
