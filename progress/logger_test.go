package progress

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/konveyor/progress-logger/progress/memory"
	"github.com/konveyor/progress-logger/progress/units"
)

// fakeClock is a manually advanced clock that counts reads
type fakeClock struct {
	now   time.Time
	reads int
}

func (c *fakeClock) Now() time.Time {
	c.reads++
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// recordingSink captures all lines for testing
type recordingSink struct {
	lines []string
}

func (r *recordingSink) Info(line string) {
	r.lines = append(r.lines, line)
}

func (r *recordingSink) Last() string {
	if len(r.lines) == 0 {
		return ""
	}
	return r.lines[len(r.lines)-1]
}

// fakeProbe returns fixed figures and counts refreshes
type fakeProbe struct {
	refreshes  int
	resident   uint64
	residentOK bool
	err        error
}

func (p *fakeProbe) Refresh() error {
	p.refreshes++
	return p.err
}

func (p *fakeProbe) ResidentBytes(pid int) (uint64, bool) {
	return p.resident, p.residentOK
}

func (p *fakeProbe) AvailableBytes() uint64 { return 1 << 30 }
func (p *fakeProbe) FreeBytes() uint64      { return 512 << 20 }
func (p *fakeProbe) TotalBytes() uint64     { return 2 << 30 }

func newTestLogger(opts ...Option) (*ProgressLogger, *fakeClock, *recordingSink) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	sink := &recordingSink{}
	opts = append([]Option{WithClock(clock), WithSink(sink)}, opts...)
	return New(opts...), clock, sink
}

func TestNewDefaults(t *testing.T) {
	pl, _, sink := newTestLogger()

	assert.Equal(t, NotStarted, pl.State())
	assert.Equal(t, "item", pl.ItemName())
	assert.Equal(t, 10*time.Second, pl.LogInterval())
	_, ok := pl.ExpectedUpdates()
	assert.False(t, ok)
	_, ok = pl.TimeUnit()
	assert.False(t, ok)
	assert.Equal(t, NotStartedMessage, pl.String())
	assert.Empty(t, sink.lines)

	_, ok = pl.Elapsed()
	assert.False(t, ok)
}

func TestStartLogsMessage(t *testing.T) {
	pl, _, sink := newTestLogger()

	pl.Start("Smashing pumpkins...")

	assert.Equal(t, Running, pl.State())
	assert.Equal(t, []string{"Smashing pumpkins..."}, sink.lines)
	assert.Equal(t, "0 items, 0ms", pl.String())
}

func TestStartResetsFromAnyState(t *testing.T) {
	pl, clock, _ := newTestLogger()

	pl.Start("first")
	pl.UpdateWithCount(42)
	clock.Advance(time.Second)
	pl.Stop()
	require.Equal(t, Stopped, pl.State())

	clock.Advance(time.Second)
	pl.Start("second")

	assert.Equal(t, Running, pl.State())
	assert.Zero(t, pl.Count())
	assert.Equal(t, "0 items, 0ms", pl.String())

	pl.Update()
	pl.Start("third")
	assert.Zero(t, pl.Count())
}

func TestUpdateCounts(t *testing.T) {
	pl, _, _ := newTestLogger()
	pl.Start("go")

	for i := 0; i < 100; i++ {
		pl.Update()
	}
	assert.Equal(t, uint64(100), pl.Count())

	pl.UpdateWithCount(5)
	pl.UpdateWithCount(0)
	pl.UpdateAndDisplay()
	pl.LightUpdate()
	assert.Equal(t, uint64(107), pl.Count())
}

func TestUpdateThrottles(t *testing.T) {
	pl, clock, sink := newTestLogger()
	pl.Start("go")

	for i := 0; i < 25; i++ {
		clock.Advance(time.Second)
		pl.Update()
	}

	require.Len(t, sink.lines, 3)
	assert.Equal(t, "10 items, 10.00s, 1.00 s/item, 1.00 items/s", sink.lines[1])
	assert.Equal(t, "20 items, 20.00s, 1.00 s/item, 1.00 items/s", sink.lines[2])
}

func TestUpdateBeforeStartDoesNotLog(t *testing.T) {
	pl, clock, sink := newTestLogger()

	for i := 0; i < 5; i++ {
		clock.Advance(time.Minute)
		pl.Update()
	}

	assert.Empty(t, sink.lines)
	assert.Equal(t, NotStartedMessage, pl.String())
}

func TestUpdateAndDisplayBypassesThrottle(t *testing.T) {
	pl, _, sink := newTestLogger()
	pl.Start("go")

	pl.UpdateAndDisplay()
	pl.UpdateAndDisplay()

	require.Len(t, sink.lines, 3)
	assert.True(t, strings.HasPrefix(sink.lines[1], "1 item, 0ms, "), sink.lines[1])
	assert.True(t, strings.HasPrefix(sink.lines[2], "2 items, 0ms, "), sink.lines[2])
}

func TestUpdateAndDisplayRestartsInterval(t *testing.T) {
	pl, clock, sink := newTestLogger()
	pl.Start("go")

	clock.Advance(5 * time.Second)
	pl.UpdateAndDisplay()

	clock.Advance(9 * time.Second)
	pl.Update()
	assert.Len(t, sink.lines, 2)

	clock.Advance(time.Second)
	pl.Update()
	assert.Len(t, sink.lines, 3)
}

func TestLightUpdateReadsClockOncePerMask(t *testing.T) {
	pl, clock, sink := newTestLogger()
	pl.Start("go")
	clock.Advance(time.Minute)
	readsAfterStart := clock.reads

	for i := uint64(0); i < LightUpdateMask; i++ {
		pl.LightUpdate()
	}
	assert.Equal(t, readsAfterStart, clock.reads)
	assert.Len(t, sink.lines, 1)

	pl.LightUpdate()
	assert.Equal(t, readsAfterStart+1, clock.reads)
	assert.Equal(t, uint64(1<<20), pl.Count())
	require.Len(t, sink.lines, 2)
	assert.True(t, strings.HasPrefix(sink.lines[1], "1,048,576 items, 1m 0s, "), sink.lines[1])
}

func TestStopFreezesElapsed(t *testing.T) {
	pl, clock, _ := newTestLogger()
	pl.Start("go")

	clock.Advance(5 * time.Second)
	pl.UpdateWithCount(10)
	pl.Stop()
	clock.Advance(100 * time.Second)

	assert.Equal(t, Stopped, pl.State())
	assert.Equal(t, "Elapsed: 5.00s [10 items, 500.00 ms/item, 2.00 items/s]", pl.String())
}

func TestStopWithZeroCountOmitsRate(t *testing.T) {
	pl, clock, _ := newTestLogger()
	pl.Start("go")
	clock.Advance(5 * time.Second)

	pl.Stop()

	assert.Equal(t, "Elapsed: 5.00s", pl.String())
}

func TestStopKeepsFirstStopTime(t *testing.T) {
	pl, clock, _ := newTestLogger()
	pl.Start("go")
	clock.Advance(time.Second)
	pl.Stop()
	clock.Advance(time.Hour)
	pl.Stop()

	assert.Equal(t, "Elapsed: 1.00s", pl.String())
}

func TestStopBeforeStart(t *testing.T) {
	pl, _, _ := newTestLogger(WithExpectedUpdates(10))

	pl.Stop()

	assert.Equal(t, NotStarted, pl.State())
	_, ok := pl.ExpectedUpdates()
	assert.False(t, ok)
}

func TestDoneWithCount(t *testing.T) {
	pl, clock, sink := newTestLogger()
	pl.Start("go")
	for i := 0; i < 100; i++ {
		pl.Update()
	}
	clock.Advance(time.Second)

	pl.DoneWithCount(100)

	assert.Equal(t, []string{
		"go",
		"Completed.",
		"Elapsed: 1.00s [100 items, 10.00 ms/item, 100.00 items/s]",
	}, sink.lines)
	assert.Equal(t, Stopped, pl.State())
}

func TestDoneWithCountAsTimer(t *testing.T) {
	pl, clock, sink := newTestLogger(WithItemName("pumpkin"))
	pl.Start("Smashing pumpkins...")
	clock.Advance(2 * time.Second)

	pl.DoneWithCount(1)

	assert.Equal(t, "Elapsed: 2.00s [1 pumpkin, 2.00 s/pumpkin, 30.00 pumpkins/m]", sink.Last())
}

func TestDoneClearsExpectedUpdates(t *testing.T) {
	for name, done := range map[string]func(pl *ProgressLogger){
		"Done":          func(pl *ProgressLogger) { pl.Done() },
		"DoneWithCount": func(pl *ProgressLogger) { pl.DoneWithCount(7) },
		"StopThenDone": func(pl *ProgressLogger) {
			pl.Stop()
			pl.Done()
		},
	} {
		t.Run(name, func(t *testing.T) {
			pl, clock, sink := newTestLogger(WithExpectedUpdates(50))
			pl.Start("go")
			pl.UpdateWithCount(5)
			clock.Advance(time.Second)

			done(pl)

			_, ok := pl.ExpectedUpdates()
			assert.False(t, ok)
			assert.NotContains(t, sink.Last(), "% done")
			assert.NotContains(t, pl.String(), "to end")
		})
	}
}

func TestExpectedUpdatesPercentAndETA(t *testing.T) {
	pl, clock, _ := newTestLogger(WithExpectedUpdates(50))
	pl.Start("go")
	for i := 0; i < 25; i++ {
		pl.Update()
	}
	clock.Advance(5 * time.Second)

	line := pl.String()

	assert.Contains(t, line, "50.00% done")
	assert.Equal(t, "25 items, 5.00s, 200.00 ms/item, 5.00 items/s; 50.00% done, 4.81s to end", line)
}

func TestExpectedUpdatesExceeded(t *testing.T) {
	pl, clock, _ := newTestLogger()
	pl.SetExpectedUpdates(10)
	pl.Start("go")
	pl.UpdateWithCount(20)
	clock.Advance(time.Second)

	assert.Contains(t, pl.String(), "; 200.00% done, 0ms to end")

	pl.ClearExpectedUpdates()
	assert.NotContains(t, pl.String(), "done")
}

func TestExpectedUpdatesBeforeFirstItem(t *testing.T) {
	pl, clock, _ := newTestLogger(WithExpectedUpdates(100))
	pl.Start("go")
	clock.Advance(time.Second)

	assert.Equal(t, "0 items, 1.00s; 0.00% done, 1m 40s to end", pl.String())
}

func TestFixedTimeUnit(t *testing.T) {
	pl, clock, _ := newTestLogger(WithTimeUnit(units.Seconds))
	pl.Start("go")
	for i := 0; i < 1_000_000; i++ {
		pl.Update()
	}
	clock.Advance(time.Second)

	line := pl.String()

	assert.Equal(t, "1000000 items, 1.00s, 0.00 s/item, 1000000.00 items/s", line)
	assert.NotContains(t, line, "1,000,000")
}

func TestFixedTimeUnitIsStableAcrossMagnitudes(t *testing.T) {
	pl, clock, _ := newTestLogger(WithTimeUnit(units.Milliseconds))
	pl.Start("go")
	pl.UpdateWithCount(3)
	clock.Advance(time.Hour)
	slow := pl.String()

	pl.Start("go")
	pl.UpdateWithCount(3_000_000_000)
	clock.Advance(time.Millisecond)
	fast := pl.String()

	assert.Contains(t, slow, " ms/item, ")
	assert.True(t, strings.HasSuffix(slow, " items/ms"), slow)
	assert.Contains(t, fast, " ms/item, ")
	assert.True(t, strings.HasSuffix(fast, " items/ms"), fast)
	assert.True(t, strings.HasPrefix(fast, "3000000000 items"), fast)
}

func TestClearTimeUnitRestoresGrouping(t *testing.T) {
	pl, _, _ := newTestLogger()
	pl.SetTimeUnit(units.Seconds)
	pl.Start("go")
	pl.UpdateWithCount(1234567)
	assert.True(t, strings.HasPrefix(pl.String(), "1234567 items"))

	pl.ClearTimeUnit()
	assert.True(t, strings.HasPrefix(pl.String(), "1,234,567 items"))
}

func TestLocaleGrouping(t *testing.T) {
	pl, _, _ := newTestLogger(WithLocale(language.German))
	pl.Start("go")
	pl.UpdateWithCount(1234567)

	assert.True(t, strings.HasPrefix(pl.String(), "1.234.567 items"), pl.String())
}

func TestLocalSpeed(t *testing.T) {
	pl, clock, sink := newTestLogger(WithLocalSpeed())
	pl.Start("go")

	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		pl.Update()
	}
	require.Len(t, sink.lines, 2)
	assert.Equal(t, "10 items, 10.00s, 1.00 s/item, 1.00 items/s [1.00 s/item, 1.00 items/s]", sink.lines[1])

	for i := 0; i < 20; i++ {
		clock.Advance(500 * time.Millisecond)
		pl.Update()
	}
	require.Len(t, sink.lines, 3)
	assert.Equal(t, "30 items, 20.00s, 666.67 ms/item, 1.50 items/s [500.00 ms/item, 2.00 items/s]", sink.lines[2])
}

func TestLocalSpeedOmittedWithoutNewItems(t *testing.T) {
	pl, _, sink := newTestLogger(WithLocalSpeed())
	pl.Start("go")

	pl.UpdateAndDisplay()
	assert.Contains(t, sink.Last(), " [")

	assert.NotContains(t, pl.String(), "[")
}

func TestLocalSpeedNotShownWhenStopped(t *testing.T) {
	pl, clock, _ := newTestLogger()
	pl.SetLocalSpeed(true)
	pl.Start("go")
	clock.Advance(time.Second)
	pl.UpdateWithCount(4)
	pl.Stop()

	assert.Equal(t, "Elapsed: 1.00s [4 items, 250.00 ms/item, 4.00 items/s]", pl.String())
}

func TestMemoryDisplay(t *testing.T) {
	probe := &fakeProbe{resident: 256 << 20, residentOK: true}
	pl, clock, sink := newTestLogger(WithMemoryProbe(probe))
	pl.Start("go")
	clock.Advance(time.Second)

	pl.UpdateAndDisplay()

	assert.Equal(t, 1, probe.refreshes)
	assert.True(t, strings.HasSuffix(sink.Last(), "; used/avail/free/total mem 256 MiB/1.0 GiB/512 MiB/2.0 GiB"), sink.Last())

	_ = pl.String()
	assert.Equal(t, 1, probe.refreshes)

	pl.Refresh()
	assert.Equal(t, 2, probe.refreshes)
}

func TestMemoryDisplayProcessUnavailable(t *testing.T) {
	probe := &fakeProbe{residentOK: false}
	pl, clock, _ := newTestLogger(WithMemoryProbe(probe))
	pl.Start("go")
	clock.Advance(time.Second)
	pl.Update()

	assert.True(t, strings.HasSuffix(pl.String(), "; used/avail/free/total mem N/A/1.0 GiB/512 MiB/2.0 GiB"), pl.String())
}

func TestMemoryDisplayRefreshFailure(t *testing.T) {
	probe := &fakeProbe{resident: 1024, residentOK: true, err: errors.New("boom")}
	pl, _, _ := newTestLogger(WithMemoryProbe(probe))
	pl.Start("go")

	pl.Refresh()

	assert.Contains(t, pl.String(), "mem 1.0 KiB/")
}

func TestMemoryDisplayWhenStopped(t *testing.T) {
	probe := &fakeProbe{residentOK: true, resident: 1536}
	pl, clock, sink := newTestLogger(WithMemoryProbe(probe))
	pl.Start("go")
	clock.Advance(time.Second)

	pl.Done()

	assert.Equal(t, 1, probe.refreshes)
	assert.Equal(t, "Elapsed: 1.00s; used/avail/free/total mem 1.5 KiB/1.0 GiB/512 MiB/2.0 GiB", sink.Last())
}

func TestDisplayMemoryIsChainable(t *testing.T) {
	probe := &fakeProbe{}
	pl, _, _ := newTestLogger(WithMemoryProbe(probe))

	assert.Same(t, pl, pl.DisplayMemory())
	assert.Same(t, probe, pl.memory)

	plain, _, _ := newTestLogger()
	assert.NotNil(t, plain.DisplayMemory().memory)
}

func TestDisplayMemoryTracksPID(t *testing.T) {
	ppid := os.Getppid()

	tests := []struct {
		name string
		opts []Option
	}{
		{name: "pid first", opts: []Option{WithPID(ppid), WithDisplayMemory()}},
		{name: "display memory first", opts: []Option{WithDisplayMemory(), WithPID(ppid)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl, _, _ := newTestLogger(tt.opts...)
			probe, ok := pl.memory.(*memory.Probe)
			require.True(t, ok)
			assert.Equal(t, ppid, probe.PID())
		})
	}

	pl, _, _ := newTestLogger(WithPID(ppid))
	probe, ok := pl.DisplayMemory().memory.(*memory.Probe)
	require.True(t, ok)
	assert.Equal(t, ppid, probe.PID())

	self, _, _ := newTestLogger(WithDisplayMemory())
	probe, ok = self.memory.(*memory.Probe)
	require.True(t, ok)
	assert.Equal(t, os.Getpid(), probe.PID())
}

func TestMemoryProbeWinsOverDisplayMemory(t *testing.T) {
	probe := &fakeProbe{}
	pl, _, _ := newTestLogger(WithDisplayMemory(), WithMemoryProbe(probe))
	assert.Same(t, probe, pl.memory)
}

func TestElapsed(t *testing.T) {
	pl, clock, _ := newTestLogger()
	pl.Start("go")
	clock.Advance(3 * time.Second)

	elapsed, ok := pl.Elapsed()
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, elapsed)
}

func TestSetLogIntervalAppliesFromNextLine(t *testing.T) {
	pl, clock, sink := newTestLogger()
	pl.Start("go")
	pl.SetLogInterval(time.Second)

	clock.Advance(5 * time.Second)
	pl.Update()
	assert.Len(t, sink.lines, 1)

	clock.Advance(5 * time.Second)
	pl.Update()
	assert.Len(t, sink.lines, 2)

	clock.Advance(time.Second)
	pl.Update()
	assert.Len(t, sink.lines, 3)
}

func TestSetItemName(t *testing.T) {
	pl, clock, _ := newTestLogger()
	pl.Start("go")
	pl.SetItemName("record")
	pl.UpdateWithCount(2)
	clock.Advance(time.Second)

	assert.Equal(t, "2 records, 1.00s, 500.00 ms/record, 2.00 records/s", pl.String())
}

func TestSinkFunc(t *testing.T) {
	var lines []string
	pl := New(WithSink(SinkFunc(func(line string) {
		lines = append(lines, line)
	})))

	pl.Start("go")

	assert.Equal(t, []string{"go"}, lines)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "not started", NotStarted.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "stopped", Stopped.String())
}

func BenchmarkUpdate(b *testing.B) {
	pl := New(WithSink(SinkFunc(func(string) {})))
	pl.Start("bench")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pl.Update()
	}
}

func BenchmarkLightUpdate(b *testing.B) {
	pl := New(WithSink(SinkFunc(func(string) {})))
	pl.Start("bench")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pl.LightUpdate()
	}
}
