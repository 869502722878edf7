package prometheus

import (
	"github.com/uttslabs/utts/events"
)

// Status constants for metric labels.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// MetricsListener records batch synthesis events as Prometheus metrics.
// It implements the events.Listener signature and should be registered
// with an EventBus using SubscribeAll.
type MetricsListener struct{}

// NewMetricsListener creates a new MetricsListener.
func NewMetricsListener() *MetricsListener {
	return &MetricsListener{}
}

// Handle processes an event and records relevant metrics.
// This method is designed to be used with EventBus.SubscribeAll.
func (l *MetricsListener) Handle(event *events.Event) {
	//exhaustive:ignore
	switch event.Type {
	case events.EventBatchStarted:
		RecordBatchStart()
	case events.EventBatchCompleted:
		l.handleBatchCompleted(event)
	case events.EventTaskCompleted:
		l.handleTaskCompleted(event)
	case events.EventTaskFailed:
		l.handleTaskFailed(event)
	default:
		// Ignore events that don't have metrics
	}
}

func (l *MetricsListener) handleBatchCompleted(event *events.Event) {
	if data, ok := event.Data.(*events.BatchCompletedData); ok {
		RecordBatchEnd(data.Duration.Seconds())
	}
}

func (l *MetricsListener) handleTaskCompleted(event *events.Event) {
	if data, ok := event.Data.(*events.TaskCompletedData); ok {
		RecordSynthesisRequest(data.Provider, data.Model, statusSuccess, data.Duration.Seconds())
		RecordSynthesisAudio(data.Provider, data.Model, data.AudioBytes)
		RecordBatchTask(statusSuccess)
	}
}

func (l *MetricsListener) handleTaskFailed(event *events.Event) {
	if data, ok := event.Data.(*events.TaskFailedData); ok {
		RecordSynthesisRequest(data.Provider, data.Model, statusError, data.Duration.Seconds())
		RecordBatchTask(statusError)
	}
}

// Listener returns an events.Listener function that can be registered with an EventBus.
func (l *MetricsListener) Listener() events.Listener {
	return l.Handle
}
