package batch

import (
	"fmt"
	"time"

	"github.com/uttslabs/utts/tts"
)

// Task is one unit of synthesis work: a provider service, the text to speak,
// and the synthesis parameters.
type Task struct {
	// Service performs the synthesis. Must not be nil.
	Service tts.Service

	// Text is the input to synthesize.
	Text string

	// Config holds the synthesis parameters (voice, model, format, speed).
	Config tts.SynthesisConfig
}

// Outcome is the result of one task. Outcomes are returned in the same order
// as the submitted tasks; a failed task yields an Outcome with Err set, never
// a missing slot.
type Outcome struct {
	// Index is the task's position in the submitted batch.
	Index int

	// Provider is the service name the task ran against.
	Provider string

	// Audio is the synthesized audio. Nil when the task failed.
	Audio []byte

	// Duration is the wall-clock time the task took.
	Duration time.Duration

	// Err is the task's failure, if any, as a *TaskError.
	Err error
}

// Failed reports whether the task produced an error instead of audio.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// TaskError wraps a single task's failure with its position and provider so a
// partial batch result stays attributable.
type TaskError struct {
	// Index is the failing task's position in the batch.
	Index int

	// Provider is the service name the task ran against.
	Provider string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d (%s): %v", e.Index, e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *TaskError) Unwrap() error {
	return e.Err
}
