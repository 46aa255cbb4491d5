package sink

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LogrSink writes lines as info messages of a logr.Logger.
type LogrSink struct {
	log logr.Logger
}

// Logr wraps a logr.Logger.
func Logr(log logr.Logger) *LogrSink {
	return &LogrSink{log: log}
}

func (s *LogrSink) Info(line string) {
	s.log.Info(line)
}

// Default returns the sink used when none is configured: a stdr logger on
// stderr with standard timestamps.
func Default() *LogrSink {
	return Logr(stdr.New(stdlog.New(os.Stderr, "", stdlog.LstdFlags)))
}

// LogrusSink writes lines through a logrus logger or entry.
type LogrusSink struct {
	log logrus.FieldLogger
}

func Logrus(log logrus.FieldLogger) *LogrusSink {
	return &LogrusSink{log: log}
}

func (s *LogrusSink) Info(line string) {
	s.log.Info(line)
}

// ZerologSink writes lines as zerolog info events.
type ZerologSink struct {
	log zerolog.Logger
}

func Zerolog(log zerolog.Logger) *ZerologSink {
	return &ZerologSink{log: log}
}

func (s *ZerologSink) Info(line string) {
	s.log.Info().Msg(line)
}

// SpanEventName is the name of the events recorded by SpanSink.
const SpanEventName = "progress"

// SpanSink records every line as an event on an OpenTelemetry span, so the
// status of an activity is visible in its trace.
type SpanSink struct {
	span trace.Span
}

func Span(span trace.Span) *SpanSink {
	return &SpanSink{span: span}
}

func (s *SpanSink) Info(line string) {
	s.span.AddEvent(SpanEventName, trace.WithAttributes(attribute.String("message", line)))
}

// WriterSink writes timestamped text lines to an io.Writer.
//
// Example output:
//
//	[17:06:14] Smashing pumpkins...
//	[17:06:24] 1,024 pumpkins, 10.00s, 9.77 ms/pumpkin, 102.40 pumpkins/s
//
// It is safe for concurrent use.
type WriterSink struct {
	writer io.Writer
	mu     sync.Mutex
	now    func() time.Time
}

func Writer(w io.Writer) *WriterSink {
	return &WriterSink{
		writer: w,
		now:    time.Now,
	}
}

func (s *WriterSink) Info(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.writer, "[%s] %s\n", s.now().Format("15:04:05"), line)
}

// Infoer is anything that accepts progress lines. progress.Sink and every
// sink in this package satisfy it.
type Infoer interface {
	Info(line string)
}

// MultiSink fans each line out to several sinks in order.
type MultiSink struct {
	sinks []Infoer
}

// Multi returns a sink writing each line to sinks, in the given order.
func Multi(sinks ...Infoer) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Info(line string) {
	for _, s := range m.sinks {
		s.Info(line)
	}
}

// DiscardSink drops every line.
type DiscardSink struct{}

func Discard() DiscardSink {
	return DiscardSink{}
}

func (DiscardSink) Info(string) {
	// Intentionally empty
}
