package progress

import "time"

// Throttle decides when a status line is due.
//
// A line is due once the log interval has elapsed since the last emitted
// line. Callers report emitted lines with MarkEmitted, which also snapshots
// the count so the speed over the last interval can be computed.
//
// Example usage:
//
//	th := progress.NewThrottle(10 * time.Second)
//	th.Reset(time.Now())
//	for i := uint64(1); i <= total; i++ {
//	    if now := time.Now(); th.Due(now) {
//	        fmt.Println(i)
//	        th.MarkEmitted(now, i)
//	    }
//	}
type Throttle struct {
	interval    time.Duration
	lastLogTime time.Time
	nextLogTime time.Time
	lastCount   uint64
}

// NewThrottle returns a throttle spacing lines by interval. Call Reset
// before the first Due.
func NewThrottle(interval time.Duration) Throttle {
	return Throttle{interval: interval}
}

// Reset starts a new throttling window at now with a zero count.
func (t *Throttle) Reset(now time.Time) {
	t.lastCount = 0
	t.lastLogTime = now
	t.nextLogTime = now.Add(t.interval)
}

// Due reports whether now is at or past the next log time.
func (t *Throttle) Due(now time.Time) bool {
	return !now.Before(t.nextLogTime)
}

// MarkEmitted records a line emitted at now when the count was count.
func (t *Throttle) MarkEmitted(now time.Time, count uint64) {
	t.lastCount = count
	t.lastLogTime = now
	t.nextLogTime = now.Add(t.interval)
}

// SetInterval changes the interval. The line already scheduled keeps its
// time; the new interval applies from the next emitted line.
func (t *Throttle) SetInterval(interval time.Duration) {
	t.interval = interval
}

// Interval returns the current log interval.
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// LastLogTime returns the time of the last emitted line or of the last Reset.
func (t *Throttle) LastLogTime() time.Time {
	return t.lastLogTime
}

// NextLogTime returns the time from which a line is due.
func (t *Throttle) NextLogTime() time.Time {
	return t.nextLogTime
}

// LastCount returns the count recorded by the last MarkEmitted.
func (t *Throttle) LastCount() uint64 {
	return t.lastCount
}
