// Package sink adapts logging backends into destinations for progress lines.
//
// Every adapter exposes a single Info(line string) method, so any of them can
// be handed to progress.WithSink:
//
//	logrusLog := logrus.New()
//	pl := progress.New(progress.WithSink(sink.Logr(logrusr.New(logrusLog))))
//
// Lines are emitted at informational severity. Adapters never report
// failures of the underlying backend.
package sink
