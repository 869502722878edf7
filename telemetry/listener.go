package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/uttslabs/utts/events"
)

// spanEntry tracks an in-flight span and its context.
type spanEntry struct {
	span trace.Span
	ctx  context.Context //nolint:containedctx // needed to parent child spans
}

// pendingEnd buffers a span completion that arrived before the corresponding start.
// The EventBus dispatches each Publish() in a separate goroutine, so completion
// events can race ahead of start events.
type pendingEnd struct {
	errMsg string // empty means success
	attrs  []attribute.KeyValue
}

// OTelEventListener converts batch synthesis events into OTel spans in real
// time: one root span per batch run, one child span per task. It implements
// the events.Listener function signature via its OnEvent method, is safe for
// concurrent use, and tolerates out-of-order event delivery.
type OTelEventListener struct {
	tracer trace.Tracer

	mu             sync.Mutex
	batches        map[string]*spanEntry                 // runID → root span + ctx
	inflight       map[string]*spanEntry                 // "task:<runID>:<index>" → span + ctx
	pendingEnds    map[string]*pendingEnd                // buffered task completions for out-of-order delivery
	pendingBatches map[string]*events.BatchCompletedData // buffered batch completions, same race
}

// NewOTelEventListener creates a listener that creates OTel spans from batch events.
func NewOTelEventListener(tracer trace.Tracer) *OTelEventListener {
	return &OTelEventListener{
		tracer:         tracer,
		batches:        make(map[string]*spanEntry),
		inflight:       make(map[string]*spanEntry),
		pendingEnds:    make(map[string]*pendingEnd),
		pendingBatches: make(map[string]*events.BatchCompletedData),
	}
}

// OnEvent handles a single batch event and creates/completes OTel spans accordingly.
// It is safe for concurrent use and can be passed to EventBus.SubscribeAll.
func (l *OTelEventListener) OnEvent(evt *events.Event) {
	//nolint:exhaustive // Only handling span-producing events
	switch evt.Type {
	case events.EventBatchStarted:
		l.startBatch(evt)
	case events.EventBatchCompleted:
		l.completeBatch(evt)
	case events.EventTaskStarted:
		l.startTask(evt)
	case events.EventTaskCompleted:
		l.completeTask(evt)
	case events.EventTaskFailed:
		l.failTask(evt)
	case events.EventVoiceSelected:
		l.handleVoiceSelected(evt)
	}
}

// batchCtx returns the context of the batch root span (to parent task spans).
// Falls back to context.Background() if the batch is unknown.
func (l *OTelEventListener) batchCtx(runID string) context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry, ok := l.batches[runID]; ok {
		return entry.ctx
	}
	return context.Background()
}

// startSpan starts a task span parented under the batch root and stores it in
// inflight. If a completion was already buffered (out-of-order delivery), the
// span is immediately ended.
func (l *OTelEventListener) startSpan(
	runID, key, name string, kind trace.SpanKind, attrs ...attribute.KeyValue,
) {
	parentCtx := l.batchCtx(runID)
	ctx, span := l.tracer.Start(parentCtx, name,
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...),
	)
	l.mu.Lock()
	pe, havePending := l.pendingEnds[key]
	if havePending {
		delete(l.pendingEnds, key)
	} else {
		l.inflight[key] = &spanEntry{span: span, ctx: ctx}
	}
	l.mu.Unlock()

	if havePending {
		span.SetAttributes(pe.attrs...)
		if pe.errMsg != "" {
			span.SetStatus(codes.Error, pe.errMsg)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// endSpan ends an inflight span and removes it from the map.
// If the span hasn't started yet (out-of-order delivery), the completion is
// buffered and will be applied when startSpan creates the span.
func (l *OTelEventListener) endSpan(key string, attrs ...attribute.KeyValue) {
	l.mu.Lock()
	entry, ok := l.inflight[key]
	if ok {
		delete(l.inflight, key)
	} else {
		l.pendingEnds[key] = &pendingEnd{attrs: attrs}
	}
	l.mu.Unlock()
	if !ok {
		return
	}
	entry.span.SetAttributes(attrs...)
	entry.span.SetStatus(codes.Ok, "")
	entry.span.End()
}

// failSpan ends an inflight span with an error status.
// If the span hasn't started yet (out-of-order delivery), the failure is
// buffered and will be applied when startSpan creates the span.
func (l *OTelEventListener) failSpan(key, errMsg string, attrs ...attribute.KeyValue) {
	l.mu.Lock()
	entry, ok := l.inflight[key]
	if ok {
		delete(l.inflight, key)
	} else {
		l.pendingEnds[key] = &pendingEnd{errMsg: errMsg, attrs: attrs}
	}
	l.mu.Unlock()
	if !ok {
		return
	}
	entry.span.SetAttributes(attrs...)
	entry.span.SetStatus(codes.Error, errMsg)
	entry.span.End()
}

// taskKey identifies a task span within a batch run.
func taskKey(runID string, index int) string {
	return fmt.Sprintf("task:%s:%d", runID, index)
}

// --- Batch ---

func (l *OTelEventListener) startBatch(evt *events.Event) {
	data, ok := evt.Data.(*events.BatchStartedData)
	if !ok {
		return
	}
	ctx, span := l.tracer.Start(context.Background(), "utts.batch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", evt.RunID),
			attribute.Int("batch.task_count", data.TaskCount),
		),
	)
	l.mu.Lock()
	pending, havePending := l.pendingBatches[evt.RunID]
	if havePending {
		delete(l.pendingBatches, evt.RunID)
	} else {
		l.batches[evt.RunID] = &spanEntry{span: span, ctx: ctx}
	}
	l.mu.Unlock()

	if havePending {
		finishBatchSpan(span, pending)
	}
}

func (l *OTelEventListener) completeBatch(evt *events.Event) {
	data, ok := evt.Data.(*events.BatchCompletedData)
	if !ok {
		return
	}
	l.mu.Lock()
	entry, found := l.batches[evt.RunID]
	if found {
		delete(l.batches, evt.RunID)
	} else {
		l.pendingBatches[evt.RunID] = data
	}
	l.mu.Unlock()
	if !found {
		return
	}
	finishBatchSpan(entry.span, data)
}

// finishBatchSpan records the completion attributes and status on the batch
// root span and ends it.
func finishBatchSpan(span trace.Span, data *events.BatchCompletedData) {
	span.SetAttributes(
		attribute.Int64("batch.duration_ms", data.Duration.Milliseconds()),
		attribute.Int("batch.succeeded", data.Succeeded),
		attribute.Int("batch.failed", data.Failed),
	)
	if data.Failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d tasks failed", data.Failed))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// --- Task ---

func (l *OTelEventListener) startTask(evt *events.Event) {
	data, ok := evt.Data.(*events.TaskStartedData)
	if !ok {
		return
	}
	l.startSpan(evt.RunID, taskKey(evt.RunID, data.Index), "utts.synthesis."+data.Provider,
		trace.SpanKindClient,
		attribute.Int("task.index", data.Index),
		attribute.String("tts.provider", data.Provider),
		attribute.String("tts.voice", data.Voice),
		attribute.String("tts.model", data.Model),
		attribute.Int("tts.text_chars", data.TextChars),
	)
}

func (l *OTelEventListener) completeTask(evt *events.Event) {
	data, ok := evt.Data.(*events.TaskCompletedData)
	if !ok {
		return
	}
	l.endSpan(taskKey(evt.RunID, data.Index),
		attribute.Int64("task.duration_ms", data.Duration.Milliseconds()),
		attribute.Int("tts.audio_bytes", data.AudioBytes),
	)
}

func (l *OTelEventListener) failTask(evt *events.Event) {
	data, ok := evt.Data.(*events.TaskFailedData)
	if !ok {
		return
	}
	l.failSpan(taskKey(evt.RunID, data.Index), data.Error.Error(),
		attribute.Int64("task.duration_ms", data.Duration.Milliseconds()),
	)
}

// --- Voice selection ---

func (l *OTelEventListener) handleVoiceSelected(evt *events.Event) {
	data, ok := evt.Data.(*events.VoiceSelectedData)
	if !ok {
		return
	}
	l.mu.Lock()
	entry, found := l.batches[evt.RunID]
	l.mu.Unlock()
	if !found {
		return
	}
	entry.span.AddEvent("tts.voice_selected", trace.WithAttributes(
		attribute.String("tts.provider", data.Provider),
		attribute.String("tts.voice", data.Voice),
	))
}
