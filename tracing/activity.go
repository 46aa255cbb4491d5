package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/konveyor/progress-logger/progress/sink"
)

const (
	// ItemsProcessedKey holds the final count of an activity.
	ItemsProcessedKey = attribute.Key("progress.items.processed")
	// ItemsExpectedKey holds the expected count of an activity, if known.
	ItemsExpectedKey = attribute.Key("progress.items.expected")
)

// Activity is a span covering one logged activity, paired with a sink that
// records every progress line as an event on that span.
type Activity struct {
	span trace.Span
	sink *sink.SpanSink
}

// StartActivity starts the span of an activity. An expected count of zero is
// not recorded.
func StartActivity(ctx context.Context, name string, expected uint64, attrs ...attribute.KeyValue) (context.Context, *Activity) {
	if expected > 0 {
		attrs = append(attrs, ItemsExpectedKey.Int64(int64(expected)))
	}
	ctx, span := StartNewSpan(ctx, name, attrs...)
	return ctx, &Activity{span: span, sink: sink.Span(span)}
}

// Sink returns the sink recording lines on the activity span.
func (a *Activity) Sink() *sink.SpanSink {
	return a.sink
}

// End records the number of processed items and ends the span. A non-nil
// err marks the span as failed.
func (a *Activity) End(processed uint64, err error) {
	a.span.SetAttributes(ItemsProcessedKey.Int64(int64(processed)))
	if err != nil {
		a.span.RecordError(err)
		a.span.SetStatus(codes.Error, err.Error())
	}
	a.span.End()
}
