// Package batch runs many synthesis tasks concurrently against any mix of
// TTS providers. One failed task never aborts the batch: each task's outcome
// is captured in its own slot, aligned with the input order.
package batch

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/uttslabs/utts/events"
	"github.com/uttslabs/utts/logger"
)

// Engine executes batches of synthesis tasks.
type Engine struct {
	bus *events.EventBus
	sem *semaphore.Weighted
}

// Option configures the engine.
type Option func(*Engine)

// WithConcurrency caps how many tasks run simultaneously. Zero or negative
// means unlimited: every task gets its own goroutine immediately.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithEventBus attaches an event bus for batch and task lifecycle events.
func WithEventBus(bus *events.EventBus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// NewEngine creates a batch engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes all tasks and returns one Outcome per task, in task order.
//
// Failures are partial: a task that errors fills its slot with a *TaskError
// while the rest of the batch keeps running. Run itself returns an error only
// when the batch cannot be dispatched at all, such as a task with a nil
// Service. There are no retries and no implicit per-task deadline; cancel ctx
// to stop waiting.
func (e *Engine) Run(ctx context.Context, tasks []Task) ([]Outcome, error) {
	if len(tasks) == 0 {
		return []Outcome{}, nil
	}

	for i, task := range tasks {
		if task.Service == nil {
			return nil, fmt.Errorf("task %d has no service", i)
		}
	}

	runID := uuid.New().String()
	emitter := events.NewEmitter(e.bus, runID)

	start := time.Now()
	emitter.BatchStarted(len(tasks))

	outcomes := make([]Outcome, len(tasks))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, task := range tasks {
		wg.Add(1)
		go func(idx int, t Task) {
			defer wg.Done()

			outcome := e.runTask(ctx, idx, t, emitter)

			mu.Lock()
			outcomes[idx] = outcome
			mu.Unlock()
		}(i, task)
	}

	wg.Wait()

	succeeded, failed := 0, 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		} else {
			succeeded++
		}
	}
	emitter.BatchCompleted(time.Since(start), succeeded, failed)

	return outcomes, nil
}

// runTask executes one task, converting any failure (including a provider
// panic) into a *TaskError in the outcome.
func (e *Engine) runTask(ctx context.Context, idx int, task Task, emitter *events.Emitter) Outcome {
	provider := task.Service.Name()
	start := time.Now()

	outcome := Outcome{
		Index:    idx,
		Provider: provider,
	}

	fail := func(err error) Outcome {
		outcome.Duration = time.Since(start)
		outcome.Err = &TaskError{Index: idx, Provider: provider, Err: err}
		logger.SynthesisFailed(provider, err, "index", idx)
		emitter.TaskFailed(idx, provider, task.Config.Model, err, outcome.Duration)
		return outcome
	}

	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			return fail(err)
		}
		defer e.sem.Release(1)
	}

	emitter.TaskStarted(idx, provider, task.Config.Voice, task.Config.Model, len(task.Text))
	logger.SynthesisCall(provider, task.Config.Voice, task.Config.Model, len(task.Text), "index", idx)

	audio, err := e.synthesize(ctx, task)
	if err != nil {
		return fail(err)
	}

	outcome.Audio = audio
	outcome.Duration = time.Since(start)
	logger.SynthesisResponse(provider, len(audio), outcome.Duration.Seconds(), "index", idx)
	emitter.TaskCompleted(idx, provider, task.Config.Model, len(audio), outcome.Duration)
	return outcome
}

// synthesize calls the provider and drains its audio stream. A panic inside
// the provider surfaces as an error rather than taking down the batch.
func (e *Engine) synthesize(ctx context.Context, task Task) (audio []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			audio = nil
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()

	reader, err := task.Service.Synthesize(ctx, task.Text, task.Config)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}
