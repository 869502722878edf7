package events

import (
	"time"
)

// EventType identifies the type of event emitted during batch synthesis.
type EventType string

const (
	// EventBatchStarted marks the start of a batch run.
	EventBatchStarted EventType = "batch.started"
	// EventBatchCompleted marks the end of a batch run.
	EventBatchCompleted EventType = "batch.completed"

	// EventTaskStarted marks the dispatch of one synthesis task.
	EventTaskStarted EventType = "task.started"
	// EventTaskCompleted marks successful completion of one synthesis task.
	EventTaskCompleted EventType = "task.completed"
	// EventTaskFailed marks a captured failure of one synthesis task.
	EventTaskFailed EventType = "task.failed"

	// EventVoiceSelected marks a random voice pick for a provider.
	EventVoiceSelected EventType = "voice.selected"
)

// EventData is a marker interface for event payloads.
type EventData interface {
	eventData()
}

// Event represents a runtime event delivered to listeners.
type Event struct {
	Type      EventType
	Timestamp time.Time
	RunID     string
	Data      EventData
}

// baseEventData provides a shared marker implementation for all event payloads.
type baseEventData struct{}

func (baseEventData) eventData() {}

// BatchStartedData carries batch.started payload.
type BatchStartedData struct {
	baseEventData

	// TaskCount is the number of tasks in the batch.
	TaskCount int
}

// BatchCompletedData carries batch.completed payload.
type BatchCompletedData struct {
	baseEventData

	Duration  time.Duration
	Succeeded int
	Failed    int
}

// TaskStartedData carries task.started payload.
type TaskStartedData struct {
	baseEventData

	// Index is the task's position in the batch.
	Index    int
	Provider string
	Voice    string
	Model    string

	// TextChars is the length of the input text in characters.
	TextChars int
}

// TaskCompletedData carries task.completed payload.
type TaskCompletedData struct {
	baseEventData

	Index    int
	Provider string
	Model    string

	// AudioBytes is the size of the synthesized audio.
	AudioBytes int
	Duration   time.Duration
}

// TaskFailedData carries task.failed payload.
type TaskFailedData struct {
	baseEventData

	Index    int
	Provider string
	Model    string
	Error    error
	Duration time.Duration
}

// VoiceSelectedData carries voice.selected payload.
type VoiceSelectedData struct {
	baseEventData

	Provider string
	Voice    string
}
