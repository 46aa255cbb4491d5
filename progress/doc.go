// Package progress logs the progress of long-running, item-oriented
// activities.
//
// A ProgressLogger counts items and, at most once per log interval, emits a
// human-readable status line with the elapsed time, the number of items, the
// time per item and the throughput. When the expected number of items is
// known it also shows the percentage done and an estimate of the time to the
// end. Lines go to a Sink at informational severity.
//
// # Basic Usage
//
//	pl := progress.New(progress.WithItemName("pumpkin"))
//	pl.Start("Smashing pumpkins...")
//	for _, p := range pumpkins {
//	    smash(p)
//	    pl.Update()
//	}
//	pl.Done()
//
// Output:
//
//	Smashing pumpkins...
//	1,024 pumpkins, 10.00s, 9.77 ms/pumpkin, 102.40 pumpkins/s
//	Completed.
//	Elapsed: 12.34s [1,263 pumpkins, 9.77 ms/pumpkin, 102.35 pumpkins/s]
//
// A ProgressLogger is also a handy timer: call Start, do the work, and call
// DoneWithCount with the number of items processed.
//
// # Light Updates
//
// Update reads the clock on every call. When the work per item is as cheap
// as reading the clock, use LightUpdate, which checks whether a line is due
// only once every LightUpdateMask+1 calls.
//
// # Memory
//
// DisplayMemory appends the resident memory of the process and the available,
// free and total memory of the system to every line. Figures are refreshed
// before each automatic line; call Refresh before rendering the logger with
// String yourself.
//
// # Thread Safety
//
// A ProgressLogger is not safe for concurrent use. Route updates through the
// goroutine that owns the logger, or aggregate counts elsewhere and report
// them with UpdateWithCount and DoneWithCount.
package progress
