package pubship

import (
	"time"

	"github.com/bft-labs/pubship/internal/app"
)

// State is the lifecycle state of a Shipper.
type State = app.State

// Lifecycle states.
const (
	StateStopped  = app.StateStopped
	StateStarting = app.StateStarting
	StateRunning  = app.StateRunning
	StateStopping = app.StateStopping
	StateCrashed  = app.StateCrashed
)

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// PublishSuccessEvent is emitted after a batch was accepted.
type PublishSuccessEvent struct {
	RecordCount int
	Bytes       int
	Duration    time.Duration
}

// PublishErrorEvent is emitted after a failed publish attempt.
type PublishErrorEvent struct {
	Error       error
	RecordCount int
	Retryable   bool
}

// EventHandler receives shipper events. Implementations should return
// quickly; they run on the shipping goroutine.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnPublishSuccess(PublishSuccessEvent)
	OnPublishError(PublishErrorEvent)
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{Previous: previous, Current: current, Reason: reason})
}

func (e *eventEmitterWrapper) OnPublishSuccess(recordCount, bytes int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnPublishSuccess(PublishSuccessEvent{RecordCount: recordCount, Bytes: bytes, Duration: duration})
}

func (e *eventEmitterWrapper) OnPublishError(err error, recordCount int, retryable bool) {
	if e.handler == nil {
		return
	}
	e.handler.OnPublishError(PublishErrorEvent{Error: err, RecordCount: recordCount, Retryable: retryable})
}
