package events

import "time"

// Emitter provides helpers for publishing batch events with shared metadata.
// A nil Emitter or an Emitter without a bus is safe to call and does nothing.
type Emitter struct {
	bus   *EventBus
	runID string
}

// NewEmitter creates a new event emitter stamping runID on every event.
func NewEmitter(bus *EventBus, runID string) *Emitter {
	return &Emitter{
		bus:   bus,
		runID: runID,
	}
}

// emit publishes an event with shared context fields.
func (e *Emitter) emit(eventType EventType, data EventData) {
	if e == nil || e.bus == nil {
		return
	}

	e.bus.Publish(&Event{
		Type:      eventType,
		Timestamp: time.Now(),
		RunID:     e.runID,
		Data:      data,
	})
}

// BatchStarted emits the batch.started event.
func (e *Emitter) BatchStarted(taskCount int) {
	e.emit(EventBatchStarted, &BatchStartedData{
		TaskCount: taskCount,
	})
}

// BatchCompleted emits the batch.completed event.
func (e *Emitter) BatchCompleted(duration time.Duration, succeeded, failed int) {
	e.emit(EventBatchCompleted, &BatchCompletedData{
		Duration:  duration,
		Succeeded: succeeded,
		Failed:    failed,
	})
}

// TaskStarted emits the task.started event.
func (e *Emitter) TaskStarted(index int, provider, voice, model string, textChars int) {
	e.emit(EventTaskStarted, &TaskStartedData{
		Index:     index,
		Provider:  provider,
		Voice:     voice,
		Model:     model,
		TextChars: textChars,
	})
}

// TaskCompleted emits the task.completed event.
func (e *Emitter) TaskCompleted(index int, provider, model string, audioBytes int, duration time.Duration) {
	e.emit(EventTaskCompleted, &TaskCompletedData{
		Index:      index,
		Provider:   provider,
		Model:      model,
		AudioBytes: audioBytes,
		Duration:   duration,
	})
}

// TaskFailed emits the task.failed event.
func (e *Emitter) TaskFailed(index int, provider, model string, err error, duration time.Duration) {
	e.emit(EventTaskFailed, &TaskFailedData{
		Index:    index,
		Provider: provider,
		Model:    model,
		Error:    err,
		Duration: duration,
	})
}

// VoiceSelected emits the voice.selected event.
func (e *Emitter) VoiceSelected(provider, voice string) {
	e.emit(EventVoiceSelected, &VoiceSelectedData{
		Provider: provider,
		Voice:    voice,
	})
}
