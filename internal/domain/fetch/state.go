package fetch

import (
	"context"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/stroppy-io/gatedfetch/internal/core/ids"
	"github.com/stroppy-io/gatedfetch/internal/domain/outcome"
)

// State of a run: Start -> Validating -> {Failed | Fetching} -> {Failed | Decoding} -> {Failed | Done}.
type State int

const (
	StateStart State = iota
	StateValidating
	StateFetching
	StateDecoding
	StateFailed
	StateDone
)

var stateNames = [...]string{"Start", "Validating", "Fetching", "Decoding", "Failed", "Done"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Label is the form used in metric labels and journal entries.
func (s State) Label() string {
	return strcase.ToSnake(s.String())
}

func (s State) Terminal() bool {
	return s == StateFailed || s == StateDone
}

type Transition struct {
	RunId ids.RunId
	From  State
	To    State
	// Kind and Err are set only when To is StateFailed.
	Kind outcome.Kind
	Err  error
	At   time.Time
	// Elapsed is measured from the start of the step that produced the transition.
	Elapsed time.Duration
}

type Observer interface {
	Observe(ctx context.Context, t Transition)
}

type ObserverFunc func(ctx context.Context, t Transition)

func (f ObserverFunc) Observe(ctx context.Context, t Transition) {
	f(ctx, t)
}

// Observers notifies each observer in order.
type Observers []Observer

func (o Observers) Observe(ctx context.Context, t Transition) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, t)
		}
	}
}

type tracker struct {
	runId    ids.RunId
	state    State
	started  time.Time
	now      func() time.Time
	observer Observer
}

func (t *tracker) move(ctx context.Context, to State) {
	t.emit(ctx, Transition{To: to})
}

func (t *tracker) fail(ctx context.Context, kind outcome.Kind, err error) {
	t.emit(ctx, Transition{To: StateFailed, Kind: kind, Err: err})
}

func (t *tracker) emit(ctx context.Context, tr Transition) {
	now := t.now()
	tr.RunId = t.runId
	tr.From = t.state
	tr.At = now
	tr.Elapsed = now.Sub(t.started)
	t.state = tr.To
	if t.observer != nil {
		t.observer.Observe(ctx, tr)
	}
}
