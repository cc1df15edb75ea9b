package tracing

import (
	"context"
	"errors"
	"testing"
)

func TestChildSpanInheritsTraceID(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "search", "req-123")
	_, child := StartChildSpan(ctx, "match")

	if child.TraceID != "req-123" {
		t.Errorf("child trace ID = %q, want %q", child.TraceID, "req-123")
	}
	if len(root.Children) != 1 || root.Children[0] != child {
		t.Errorf("root children = %+v, want the match span", root.Children)
	}
}

func TestSpanFromContext(t *testing.T) {
	if SpanFromContext(context.Background()) != nil {
		t.Error("empty context must yield no span")
	}
	ctx, span := StartSpan(context.Background(), "search", "req-1")
	if got := SpanFromContext(ctx); got != span {
		t.Errorf("SpanFromContext = %p, want %p", got, span)
	}
}

func TestSetErrorMarksSpanFailed(t *testing.T) {
	_, span := StartSpan(context.Background(), "search", "req-1")

	span.SetError(nil)
	if span.Err != nil {
		t.Error("nil error must not mark the span failed")
	}

	failure := errors.New("fallback unreachable")
	span.SetError(failure)
	if !errors.Is(span.Err, failure) {
		t.Errorf("span error = %v, want %v", span.Err, failure)
	}
}

func TestEndRecordsDuration(t *testing.T) {
	_, span := StartSpan(context.Background(), "search", "req-1")
	span.SetAttr("query", "kedi mamasi")
	span.End()

	if span.EndTime.Before(span.StartTime) {
		t.Error("end time precedes start time")
	}
	if span.Duration < 0 {
		t.Errorf("duration = %v, want non-negative", span.Duration)
	}
	if span.Attrs["query"] != "kedi mamasi" {
		t.Errorf("attrs = %+v", span.Attrs)
	}
}
