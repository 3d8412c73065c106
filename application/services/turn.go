package services

import (
	"context"
	"sync"
	"time"

	"canvas-ai/domain/chat"
	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/intent"

	"github.com/google/uuid"
)

// TurnState tracks one user message through the router
type TurnState string

const (
	TurnReceived          TurnState = "received"
	TurnClassifying       TurnState = "classifying"
	TurnRepliedOnly       TurnState = "replied_only"
	TurnRepliedAndPatched TurnState = "replied_and_patched"
	TurnFailed            TurnState = "failed"
	TurnDone              TurnState = "done"
)

// Turn is the processing record of one user message
type Turn struct {
	ID          string
	Utterance   string
	SubmittedAt time.Time

	ordinal uint64
	mu      sync.RWMutex
	state   TurnState
	outcome TurnState
	intent  intent.Kind
	reply   chat.Message
	graph   *aggregates.Graph
	err     error
	done    chan struct{}
}

func newTurn(utterance string) *Turn {
	return &Turn{
		ID:          uuid.New().String(),
		Utterance:   utterance,
		SubmittedAt: time.Now().UTC(),
		state:       TurnReceived,
		done:        make(chan struct{}),
	}
}

// State returns the current state
func (t *Turn) State() TurnState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Outcome returns the terminal classification result, or "" while pending
func (t *Turn) Outcome() TurnState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.outcome
}

// Intent returns the connector's classification, if any
func (t *Turn) Intent() intent.Kind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.intent
}

// Reply returns the assistant message appended for this turn
func (t *Turn) Reply() chat.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.reply
}

// Graph returns the graph after a successful patch, nil otherwise
func (t *Turn) Graph() *aggregates.Graph {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.graph
}

// Err returns why the turn failed
func (t *Turn) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Done is closed once the turn reaches TurnDone
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the turn is done or ctx ends.
// It returns ctx's error when the wait was abandoned; the turn itself keeps running.
func (t *Turn) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Turn) setState(state TurnState) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()
}

func (t *Turn) finish(outcome TurnState, kind intent.Kind, reply chat.Message, graph *aggregates.Graph, err error) {
	t.mu.Lock()
	t.outcome = outcome
	t.intent = kind
	t.reply = reply
	t.graph = graph
	t.err = err
	t.state = TurnDone
	t.mu.Unlock()
	close(t.done)
}
