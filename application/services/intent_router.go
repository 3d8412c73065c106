package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"canvas-ai/application/ports"
	"canvas-ai/domain/chat"
	"canvas-ai/domain/config"
	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/events"
	"canvas-ai/domain/intent"
	pkgerrors "canvas-ai/pkg/errors"
	"go.uber.org/zap"
)

// Assistant texts appended when a turn does not complete normally
const (
	ConnectorErrorReply = "Sorry, I encountered an error while updating the graph."
	TimeoutReply        = "Sorry, the AI did not respond in time. Please try again."
	ShutdownReply       = "Sorry, the assistant is shutting down. Please try again later."
	DefaultConfirmation = "I have updated the graph."
)

// IntentRouter turns user messages into chat replies or graph patches.
// A single worker processes turns in submission order.
type IntentRouter struct {
	connector ports.AIConnector
	graphs    *GraphStore
	session   *chat.Session
	publisher ports.EventPublisher
	metrics   ports.Metrics
	config    *config.DomainConfig
	logger    *zap.Logger

	timeout atomic.Int64
	queue   chan *Turn

	mu        sync.Mutex
	closed    bool
	submitted uint64
	settled   uint64
	notices   []pendingNotice

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// pendingNotice waits for every turn up to after to be answered
type pendingNotice struct {
	text  string
	after uint64
}

// NewIntentRouter creates a router and starts its worker
func NewIntentRouter(
	connector ports.AIConnector,
	graphs *GraphStore,
	session *chat.Session,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *IntentRouter {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &IntentRouter{
		connector: connector,
		graphs:    graphs,
		session:   session,
		publisher: publisher,
		metrics:   metrics,
		config:    cfg,
		logger:    logger,
		queue:     make(chan *Turn, cfg.MaxQueuedTurns),
		ctx:       ctx,
		cancel:    cancel,
	}
	r.timeout.Store(int64(cfg.ConnectorTimeout))

	r.wg.Add(1)
	go r.run()
	return r
}

// Timeout returns the per-turn connector deadline
func (r *IntentRouter) Timeout() time.Duration {
	return time.Duration(r.timeout.Load())
}

// SetTimeout changes the connector deadline for turns that have not started yet
func (r *IntentRouter) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	r.timeout.Store(int64(d))
	r.logger.Info("Connector timeout updated", zap.Duration("timeout", d))
}

// Pending returns the number of queued turns not yet picked up
func (r *IntentRouter) Pending() int {
	return len(r.queue)
}

// Submit records the user message and queues it for classification.
// The message is in the chat log when Submit returns.
func (r *IntentRouter) Submit(text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, pkgerrors.NewValidationError("message cannot be empty")
	}
	if len([]rune(text)) > r.config.MaxUtteranceLength {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("message exceeds maximum length of %d characters", r.config.MaxUtteranceLength))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, pkgerrors.NewUnavailableError("intent router")
	}
	// Only Submit sends, under r.mu, so a free slot here guarantees the send below never blocks
	if len(r.queue) >= cap(r.queue) {
		return nil, pkgerrors.NewRateLimitError(cap(r.queue), "queue")
	}

	turn := newTurn(text)
	r.submitted++
	turn.ordinal = r.submitted
	r.session.Append(chat.RoleUser, chat.KindMessage, text, turn.ID)
	r.queue <- turn
	r.metrics.SetQueueDepth(len(r.queue))

	r.logger.Debug("Turn queued",
		zap.String("turnID", turn.ID),
		zap.Int("pending", len(r.queue)),
	)
	return turn, nil
}

// Handle submits a message and waits for its turn to complete.
// A failed classification is reported through Turn.Err, not the returned error.
func (r *IntentRouter) Handle(ctx context.Context, text string) (*Turn, error) {
	turn, err := r.Submit(text)
	if err != nil {
		return nil, err
	}
	if err := turn.Wait(ctx); err != nil {
		return turn, err
	}
	return turn, nil
}

// Notify appends an assistant notice after the replies of all turns submitted so far.
// With no turn outstanding the notice is appended immediately.
func (r *IntentRouter) Notify(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.settled >= r.submitted {
		r.session.Append(chat.RoleAssistant, chat.KindNotice, text, "")
		return
	}
	r.notices = append(r.notices, pendingNotice{text: text, after: r.submitted})
}

// Close stops the worker; turns still queued fail as unavailable
func (r *IntentRouter) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		r.cancel()
		r.wg.Wait()
	})
}

func (r *IntentRouter) run() {
	defer r.wg.Done()
	for {
		select {
		case <-r.ctx.Done():
			r.drain()
			return
		case turn := <-r.queue:
			r.metrics.SetQueueDepth(len(r.queue))
			if r.ctx.Err() != nil {
				r.fail(turn, pkgerrors.NewUnavailableError("intent router"), ShutdownReply)
				continue
			}
			r.process(turn)
		}
	}
}

func (r *IntentRouter) drain() {
	for {
		select {
		case turn := <-r.queue:
			r.fail(turn, pkgerrors.NewUnavailableError("intent router"), ShutdownReply)
		default:
			return
		}
	}
}

func (r *IntentRouter) process(turn *Turn) {
	turn.setState(TurnClassifying)
	timeout := r.Timeout()

	// The submitter cannot cancel classification; only the router's lifetime and the deadline bound it
	ctx, cancel := context.WithTimeout(r.ctx, timeout)
	resp, err := r.classify(ctx, turn)
	deadlineHit := errors.Is(ctx.Err(), context.DeadlineExceeded)
	cancel()

	if err != nil {
		switch {
		case deadlineHit || errors.Is(err, context.DeadlineExceeded) || pkgerrors.IsConnectorTimeout(err):
			r.fail(turn, pkgerrors.NewConnectorTimeoutError(timeout.String()).WithCause(err), TimeoutReply)
		case r.ctx.Err() != nil:
			r.fail(turn, pkgerrors.NewUnavailableError("intent router").WithCause(err), ShutdownReply)
		default:
			r.logger.Warn("Connector failed",
				zap.String("turnID", turn.ID),
				zap.Error(err),
			)
			r.fail(turn, asAppError(err), ConnectorErrorReply)
		}
		return
	}

	if err := resp.Validate(); err != nil {
		r.logger.Warn("Connector returned an invalid response",
			zap.String("turnID", turn.ID),
			zap.Error(err),
		)
		r.fail(turn, err, ConnectorErrorReply)
		return
	}

	if !resp.IsRefine() {
		reply := r.session.Append(chat.RoleAssistant, chat.KindReply, resp.ReplyText, turn.ID)
		r.complete(turn, TurnRepliedOnly, intent.KindChat, reply, nil, nil)
		return
	}

	graph, err := r.graphs.ApplyPatch(r.ctx, resp.Patch)
	if err != nil {
		text := fmt.Sprintf("Sorry, I couldn't apply that change: %s", userMessage(err))
		reply := r.session.Append(chat.RoleAssistant, chat.KindError, text, turn.ID)
		r.complete(turn, TurnFailed, intent.KindRefine, reply, nil, err)
		return
	}

	confirmation := strings.TrimSpace(resp.ReplyText)
	if confirmation == "" {
		confirmation = DefaultConfirmation
	}
	reply := r.session.Append(chat.RoleAssistant, chat.KindConfirmation, confirmation, turn.ID)
	r.complete(turn, TurnRepliedAndPatched, intent.KindRefine, reply, graph, nil)
}

type classification struct {
	resp *intent.Response
	err  error
}

// classify bounds the connector call by ctx even when the connector ignores it.
// A response that arrives after ctx is done is discarded.
func (r *IntentRouter) classify(ctx context.Context, turn *Turn) (*intent.Response, error) {
	current := r.graphs.Current()
	done := make(chan classification, 1)
	go func() {
		resp, err := r.connector.Respond(ctx, turn.Utterance, current)
		done <- classification{resp: resp, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return res.resp, res.err
	case <-ctx.Done():
		r.logger.Warn("Connector call abandoned",
			zap.String("turnID", turn.ID),
			zap.Error(ctx.Err()),
		)
		return nil, ctx.Err()
	}
}

func (r *IntentRouter) fail(turn *Turn, err error, text string) {
	reply := r.session.Append(chat.RoleAssistant, chat.KindError, text, turn.ID)
	r.complete(turn, TurnFailed, "", reply, nil, err)
}

func (r *IntentRouter) complete(turn *Turn, outcome TurnState, kind intent.Kind, reply chat.Message, graph *aggregates.Graph, err error) {
	turn.setState(outcome)
	r.settle(turn.ordinal)
	turn.finish(outcome, kind, reply, graph, err)

	duration := time.Since(turn.SubmittedAt)
	r.metrics.RecordTurn(string(kind), string(outcome), duration)

	errText := ""
	if err != nil {
		errText = err.Error()
	}
	r.logger.Info("Turn completed",
		zap.String("turnID", turn.ID),
		zap.String("intent", string(kind)),
		zap.String("outcome", string(outcome)),
		zap.Duration("duration", duration),
	)

	if r.publisher == nil {
		return
	}
	event := events.NewChatTurnCompleted(turn.ID, string(kind), string(outcome), errText, time.Now().UTC())
	if pubErr := r.publisher.Publish(context.WithoutCancel(r.ctx), event); pubErr != nil {
		r.logger.Warn("Failed to publish turn event", zap.Error(pubErr))
	}
}

// settle marks turns up to ordinal as answered and releases the notices waiting on them
func (r *IntentRouter) settle(ordinal uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.settled = ordinal
	waiting := r.notices[:0]
	for _, n := range r.notices {
		if n.after <= ordinal {
			r.session.Append(chat.RoleAssistant, chat.KindNotice, n.text, "")
			continue
		}
		waiting = append(waiting, n)
	}
	r.notices = waiting
}

func asAppError(err error) error {
	if pkgerrors.IsAppError(err) {
		return err
	}
	return pkgerrors.NewExternalError("ai connector", err)
}

func userMessage(err error) string {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return err.Error()
}
