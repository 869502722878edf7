package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/uttslabs/utts/events"
)

// newTestListener returns a listener, in-memory exporter, and TracerProvider for tests.
func newTestListener(t *testing.T) (*OTelEventListener, *tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	tracer := tp.Tracer(InstrumentationName)
	listener := NewOTelEventListener(tracer)
	return listener, exp, tp
}

// flushAndGetSpans forces span export and returns spans.
// ForceFlush ensures all ended spans are exported; we read them before Shutdown
// because InMemoryExporter.Shutdown resets the buffer.
func flushAndGetSpans(t *testing.T, tp *sdktrace.TracerProvider, exp *tracetest.InMemoryExporter) tracetest.SpanStubs {
	t.Helper()
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	spans := exp.GetSpans()
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	return spans
}

// findSpan finds a span by name in the stubs or fails.
func findSpan(t *testing.T, spans tracetest.SpanStubs, name string) tracetest.SpanStub {
	t.Helper()
	for _, s := range spans {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("span %q not found in %d spans", name, len(spans))
	return tracetest.SpanStub{}
}

// hasAttr checks if a span has an attribute with the given key and string value.
func hasAttr(span tracetest.SpanStub, key, want string) bool {
	for _, a := range span.Attributes {
		if string(a.Key) == key && a.Value.AsString() == want {
			return true
		}
	}
	return false
}

// hasIntAttr checks if a span has an attribute with the given key and int value.
func hasIntAttr(span tracetest.SpanStub, key string, want int64) bool {
	for _, a := range span.Attributes {
		if string(a.Key) == key && a.Value.AsInt64() == want {
			return true
		}
	}
	return false
}

func TestOTelEventListener_BatchLifecycle(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type:  events.EventBatchStarted,
		RunID: "run-1",
		Data:  &events.BatchStartedData{TaskCount: 2},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventBatchCompleted,
		RunID: "run-1",
		Data: &events.BatchCompletedData{
			Duration:  2 * time.Second,
			Succeeded: 2,
		},
	})

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := spans[0]
	if s.Name != "utts.batch" {
		t.Errorf("expected span name 'utts.batch', got %q", s.Name)
	}
	if !hasAttr(s, "run.id", "run-1") {
		t.Error("expected run.id attribute")
	}
	if !hasIntAttr(s, "batch.task_count", 2) {
		t.Error("expected batch.task_count attribute")
	}
	if s.Status.Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", s.Status.Code)
	}
}

func TestOTelEventListener_BatchWithFailures(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type:  events.EventBatchStarted,
		RunID: "run-1",
		Data:  &events.BatchStartedData{TaskCount: 3},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventBatchCompleted,
		RunID: "run-1",
		Data: &events.BatchCompletedData{
			Succeeded: 2,
			Failed:    1,
		},
	})

	spans := flushAndGetSpans(t, tp, exp)
	s := findSpan(t, spans, "utts.batch")
	if s.Status.Code != codes.Error {
		t.Errorf("expected Error status for batch with failures, got %v", s.Status.Code)
	}
}

func TestOTelEventListener_TaskSpans(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type:  events.EventBatchStarted,
		RunID: "run-1",
		Data:  &events.BatchStartedData{TaskCount: 1},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventTaskStarted,
		RunID: "run-1",
		Data: &events.TaskStartedData{
			Index:     0,
			Provider:  "openai",
			Voice:     "nova",
			Model:     "tts-1",
			TextChars: 11,
		},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventTaskCompleted,
		RunID: "run-1",
		Data: &events.TaskCompletedData{
			Index:      0,
			Provider:   "openai",
			Model:      "tts-1",
			AudioBytes: 4096,
			Duration:   time.Second,
		},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventBatchCompleted,
		RunID: "run-1",
		Data:  &events.BatchCompletedData{Succeeded: 1},
	})

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	taskSpan := findSpan(t, spans, "utts.synthesis.openai")
	if !hasAttr(taskSpan, "tts.voice", "nova") {
		t.Error("expected tts.voice attribute")
	}
	if !hasIntAttr(taskSpan, "tts.audio_bytes", 4096) {
		t.Error("expected tts.audio_bytes attribute")
	}
	if taskSpan.Status.Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", taskSpan.Status.Code)
	}

	// Task span is parented under the batch root
	batchSpan := findSpan(t, spans, "utts.batch")
	if taskSpan.Parent.SpanID() != batchSpan.SpanContext.SpanID() {
		t.Error("expected task span to be a child of the batch span")
	}
}

func TestOTelEventListener_TaskFailed(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type:  events.EventBatchStarted,
		RunID: "run-1",
		Data:  &events.BatchStartedData{TaskCount: 1},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventTaskStarted,
		RunID: "run-1",
		Data:  &events.TaskStartedData{Index: 0, Provider: "zyphra"},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventTaskFailed,
		RunID: "run-1",
		Data: &events.TaskFailedData{
			Index:    0,
			Provider: "zyphra",
			Error:    errors.New("quota exceeded"),
			Duration: time.Second,
		},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventBatchCompleted,
		RunID: "run-1",
		Data:  &events.BatchCompletedData{Failed: 1},
	})

	spans := flushAndGetSpans(t, tp, exp)
	taskSpan := findSpan(t, spans, "utts.synthesis.zyphra")
	if taskSpan.Status.Code != codes.Error {
		t.Errorf("expected Error status, got %v", taskSpan.Status.Code)
	}
	if taskSpan.Status.Description != "quota exceeded" {
		t.Errorf("expected error description, got %q", taskSpan.Status.Description)
	}
}

func TestOTelEventListener_OutOfOrderCompletion(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type:  events.EventBatchStarted,
		RunID: "run-1",
		Data:  &events.BatchStartedData{TaskCount: 1},
	})

	// Completion arrives before the start (async bus delivery)
	listener.OnEvent(&events.Event{
		Type:  events.EventTaskCompleted,
		RunID: "run-1",
		Data: &events.TaskCompletedData{
			Index:      0,
			Provider:   "openai",
			AudioBytes: 512,
		},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventTaskStarted,
		RunID: "run-1",
		Data:  &events.TaskStartedData{Index: 0, Provider: "openai"},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventBatchCompleted,
		RunID: "run-1",
		Data:  &events.BatchCompletedData{Succeeded: 1},
	})

	spans := flushAndGetSpans(t, tp, exp)

	// The buffered completion is applied when the start arrives
	taskSpan := findSpan(t, spans, "utts.synthesis.openai")
	if taskSpan.Status.Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", taskSpan.Status.Code)
	}
	if !hasIntAttr(taskSpan, "tts.audio_bytes", 512) {
		t.Error("expected buffered tts.audio_bytes attribute")
	}
}

func TestOTelEventListener_OutOfOrderBatchCompletion(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	// Completion overtakes the start (async bus delivery)
	listener.OnEvent(&events.Event{
		Type:  events.EventBatchCompleted,
		RunID: "run-1",
		Data: &events.BatchCompletedData{
			Duration:  time.Second,
			Succeeded: 3,
		},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventBatchStarted,
		RunID: "run-1",
		Data:  &events.BatchStartedData{TaskCount: 3},
	})

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	s := findSpan(t, spans, "utts.batch")
	if s.Status.Code != codes.Ok {
		t.Errorf("expected Ok status, got %v", s.Status.Code)
	}
	if !hasIntAttr(s, "batch.succeeded", 3) {
		t.Error("expected buffered batch.succeeded attribute")
	}
}

func TestOTelEventListener_VoiceSelected(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	listener.OnEvent(&events.Event{
		Type:  events.EventBatchStarted,
		RunID: "run-1",
		Data:  &events.BatchStartedData{TaskCount: 1},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventVoiceSelected,
		RunID: "run-1",
		Data:  &events.VoiceSelectedData{Provider: "kokoro", Voice: "af_sky"},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventBatchCompleted,
		RunID: "run-1",
		Data:  &events.BatchCompletedData{Succeeded: 1},
	})

	spans := flushAndGetSpans(t, tp, exp)
	batchSpan := findSpan(t, spans, "utts.batch")

	if len(batchSpan.Events) != 1 {
		t.Fatalf("expected 1 span event, got %d", len(batchSpan.Events))
	}
	if batchSpan.Events[0].Name != "tts.voice_selected" {
		t.Errorf("expected tts.voice_selected event, got %q", batchSpan.Events[0].Name)
	}
}

func TestOTelEventListener_UnknownBatchIgnored(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	// Completion for a batch that never started must not panic
	listener.OnEvent(&events.Event{
		Type:  events.EventBatchCompleted,
		RunID: "nope",
		Data:  &events.BatchCompletedData{},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventVoiceSelected,
		RunID: "nope",
		Data:  &events.VoiceSelectedData{},
	})

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 0 {
		t.Errorf("expected no spans, got %d", len(spans))
	}
}

func TestOTelEventListener_WrongDataTypeIgnored(t *testing.T) {
	listener, exp, tp := newTestListener(t)

	// Mismatched payloads must not panic
	listener.OnEvent(&events.Event{
		Type:  events.EventBatchStarted,
		RunID: "run-1",
		Data:  &events.TaskStartedData{},
	})
	listener.OnEvent(&events.Event{
		Type:  events.EventTaskStarted,
		RunID: "run-1",
		Data:  nil,
	})

	spans := flushAndGetSpans(t, tp, exp)
	if len(spans) != 0 {
		t.Errorf("expected no spans, got %d", len(spans))
	}
}
