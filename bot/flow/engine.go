package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"IzdatBot/internal/lib/sl"
)

// Fallbacks are the engine-owned renderings for conditions no handler sees:
// lock contention, missing sessions, bad payloads and handler failures.
// Callers override them with localized texts.
type Fallbacks struct {
	Busy              string
	NoActiveSession   string
	BadPayload        string
	ActionUnavailable string
	Timeout           string
	Failure           string
	Conflict          string
	Reset             string
}

func defaultFallbacks() Fallbacks {
	return Fallbacks{
		Busy:              "Still working on your previous message, try again in a moment.",
		NoActiveSession:   "Nothing in progress. Send a command to get started.",
		BadPayload:        "That button has expired. Please use the latest message.",
		ActionUnavailable: "That action is not available here.",
		Timeout:           "That took too long. Please try again.",
		Failure:           "Something went wrong. Please try again.",
		Conflict:          "Please repeat your last message.",
		Reset:             "The conversation was reset. Send a command to start over.",
	}
}

// DispatchEvent describes one processed event, for monitoring feeds.
type DispatchEvent struct {
	UserID  string `json:"user_id"`
	Flow    string `json:"flow"`
	State   string `json:"state"`
	Outcome string `json:"outcome"`
}

// EventSink receives a DispatchEvent after every dispatch. Implementations
// must not block.
type EventSink interface {
	DispatchHandled(ev DispatchEvent)
}

const (
	defaultHandlerTimeout = 30 * time.Second
	defaultLockWait       = 5 * time.Second
)

// Engine dispatches inbound events: it serializes work per user, resolves
// the session and its bound handler, applies the returned transition and
// persists the session under optimistic concurrency.
type Engine struct {
	registry *Registry
	store    Store
	codec    *Codec
	locks    *userLock
	log      *slog.Logger

	sink           EventSink
	fallbacks      Fallbacks
	handlerTimeout time.Duration
	lockWait       time.Duration
}

// Option configures the engine.
type Option func(*Engine)

// WithHandlerTimeout bounds how long one handler call may run.
func WithHandlerTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.handlerTimeout = d
		}
	}
}

// WithLockWait bounds how long a dispatch waits for the per-user lock.
func WithLockWait(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.lockWait = d
		}
	}
}

// WithCodec replaces the default callback codec.
func WithCodec(c *Codec) Option {
	return func(e *Engine) {
		e.codec = c
	}
}

// WithFallbacks replaces the engine's user-facing fallback texts.
func WithFallbacks(f Fallbacks) Option {
	return func(e *Engine) {
		e.fallbacks = f
	}
}

// WithEventSink attaches a monitoring sink.
func WithEventSink(sink EventSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// NewEngine creates a flow engine. The registry must already be validated.
func NewEngine(registry *Registry, store Store, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		registry:       registry,
		store:          store,
		codec:          NewCodec(),
		locks:          newUserLock(),
		log:            log.With(sl.Module("flow.engine")),
		fallbacks:      defaultFallbacks(),
		handlerTimeout: defaultHandlerTimeout,
		lockWait:       defaultLockWait,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Codec returns the codec buttons must be encoded with.
func (e *Engine) Codec() *Codec {
	return e.codec
}

// Handle processes one inbound event for one user and returns what to show
// them. It never returns an error: every failure maps to a rendering and a
// session left either intact or cleanly reset.
func (e *Engine) Handle(ctx context.Context, userID string, ev Event) RenderInstruction {
	release, ok := e.locks.acquire(ctx, userID, e.lockWait)
	if !ok {
		e.log.Warn("per-user lock not acquired", slog.String("user_id", userID))
		return Render(e.fallbacks.Busy)
	}
	defer release()

	render, retry := e.dispatch(ctx, userID, ev)
	if retry {
		e.log.Warn("version conflict, retrying dispatch", slog.String("user_id", userID))
		render, retry = e.dispatch(ctx, userID, ev)
		if retry {
			return Render(e.fallbacks.Conflict)
		}
	}
	return render
}

// dispatch runs one pass of event handling. The second return value asks
// the caller to retry the whole dispatch after a version conflict.
func (e *Engine) dispatch(ctx context.Context, userID string, ev Event) (RenderInstruction, bool) {
	sess, err := e.store.Get(ctx, userID)
	if errors.Is(err, ErrSessionNotFound) {
		return e.maybeStart(ctx, userID, ev)
	}
	if err != nil {
		e.log.Error("loading session", slog.String("user_id", userID), sl.Err(err))
		return Render(e.fallbacks.Failure), false
	}

	def, ok := e.registry.flow(sess.FlowName)
	if !ok {
		e.log.Warn("session references unknown flow",
			slog.String("user_id", userID),
			slog.String("flow", string(sess.FlowName)),
		)
		return e.reset(ctx, userID)
	}
	spec, ok := def.States[sess.CurrentState]
	if !ok {
		// Stale session after a deploy that removed the state.
		e.log.Warn("session references unknown state",
			slog.String("user_id", userID),
			slog.String("flow", string(sess.FlowName)),
			slog.String("state", string(sess.CurrentState)),
		)
		return e.reset(ctx, userID)
	}

	if ev.IsCallback() && ev.Callback() == nil {
		payload, err := e.codec.Decode(ev.encoded)
		if err != nil {
			e.log.Warn("callback decode failed", slog.String("user_id", userID), sl.Err(err))
			return Render(e.fallbacks.BadPayload), false
		}
		if payload.Namespace != def.Namespace {
			e.log.Debug("callback for foreign namespace",
				slog.String("user_id", userID),
				slog.String("namespace", payload.Namespace),
				slog.Bool("registered", e.registry.knownNamespace(payload.Namespace)),
			)
			return Render(e.fallbacks.ActionUnavailable), false
		}
		ev.callback = &payload
	}

	handler, ok := e.registry.handler(spec.Handler)
	if !ok {
		e.log.Error("state bound to unknown handler",
			slog.String("flow", string(sess.FlowName)),
			slog.String("state", string(sess.CurrentState)),
			slog.String("handler", spec.Handler),
		)
		return Render(e.fallbacks.Failure), false
	}

	res, err := e.invoke(ctx, handler, Request{
		UserID:  userID,
		Flow:    sess.FlowName,
		State:   sess.CurrentState,
		Context: sess.Context.clone(),
		Event:   ev,
	})
	if err != nil {
		e.log.Warn("handler timed out",
			slog.String("user_id", userID),
			slog.String("flow", string(sess.FlowName)),
			slog.String("state", string(sess.CurrentState)),
			sl.Err(err),
		)
		return Render(e.fallbacks.Timeout), false
	}
	if res.Err != nil {
		// Log the failure in full, but never the session context: it holds
		// user-entered data.
		e.log.Error("handler failed",
			slog.String("user_id", userID),
			slog.String("flow", string(sess.FlowName)),
			slog.String("state", string(sess.CurrentState)),
			sl.Err(res.Err),
		)
		return Render(e.fallbacks.Failure), false
	}

	return e.apply(ctx, def, sess, res)
}

// maybeStart handles events for users with no session: a recognized start
// trigger creates one, anything else gets the neutral fallback.
func (e *Engine) maybeStart(ctx context.Context, userID string, ev Event) (RenderInstruction, bool) {
	if ev.IsCallback() {
		return Render(e.fallbacks.NoActiveSession), false
	}
	fields := strings.Fields(ev.Text())
	if len(fields) == 0 {
		return Render(e.fallbacks.NoActiveSession), false
	}
	def, ok := e.registry.byTrigger(fields[0])
	if !ok {
		return Render(e.fallbacks.NoActiveSession), false
	}

	sess := NewSession(userID, def.Name, def.EntryState)
	if err := e.store.Put(ctx, sess, 0); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return RenderInstruction{}, true
		}
		e.log.Error("creating session", slog.String("user_id", userID), sl.Err(err))
		return Render(e.fallbacks.Failure), false
	}

	e.log.Info("flow started",
		slog.String("user_id", userID),
		slog.String("flow", string(def.Name)),
		slog.String("state", string(def.EntryState)),
	)
	e.emit(userID, def.Name, def.EntryState, "started")

	if spec := def.States[def.EntryState]; spec.Prompt != nil {
		return *spec.Prompt, false
	}
	return RenderInstruction{}, false
}

// apply executes the handler's transition outcome and persists the session.
func (e *Engine) apply(ctx context.Context, def *Definition, sess *Session, res Result) (RenderInstruction, bool) {
	out := res.Outcome

	if out.IsTerminal() {
		if err := e.store.Delete(ctx, sess.UserID); err != nil {
			e.log.Error("deleting session", slog.String("user_id", sess.UserID), sl.Err(err))
			return Render(e.fallbacks.Failure), false
		}
		e.log.Info("flow finished",
			slog.String("user_id", sess.UserID),
			slog.String("flow", string(sess.FlowName)),
			slog.String("outcome", out.String()),
		)
		e.emit(sess.UserID, sess.FlowName, sess.CurrentState, out.String())
		return res.Render, false
	}

	expected := sess.Version
	moved := out.kind == outcomeMove
	if moved {
		if !def.allows(sess.CurrentState, out.Target()) {
			e.log.Error("handler returned undeclared transition",
				slog.String("flow", string(sess.FlowName)),
				slog.String("from", string(sess.CurrentState)),
				slog.String("to", string(out.Target())),
			)
			return Render(e.fallbacks.Failure), false
		}
		sess.CurrentState = out.Target()
	}
	sess.Merge(res.Context)
	sess.Version = expected + 1
	sess.UpdatedAt = time.Now()

	if err := e.store.Put(ctx, sess, expected); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return RenderInstruction{}, true
		}
		e.log.Error("persisting session", slog.String("user_id", sess.UserID), sl.Err(err))
		return Render(e.fallbacks.Failure), false
	}

	e.emit(sess.UserID, sess.FlowName, sess.CurrentState, out.String())

	render := res.Render
	if render.IsZero() && moved {
		if spec, ok := def.States[sess.CurrentState]; ok && spec.Prompt != nil {
			render = *spec.Prompt
		}
	}
	return render, false
}

// invoke runs the handler under the timeout budget, converting panics into
// handler errors so a misbehaving handler never kills the dispatch loop.
func (e *Engine) invoke(ctx context.Context, h Handler, req Request) (Result, error) {
	hctx, cancel := context.WithTimeout(ctx, e.handlerTimeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- Result{Err: fmt.Errorf("handler panic: %v", r)}
			}
		}()
		done <- h(hctx, req)
	}()

	select {
	case res := <-done:
		return res, nil
	case <-hctx.Done():
		return Result{}, hctx.Err()
	}
}

// reset deletes a session that references configuration that no longer
// exists and tells the user to start over.
func (e *Engine) reset(ctx context.Context, userID string) (RenderInstruction, bool) {
	if err := e.store.Delete(ctx, userID); err != nil {
		e.log.Error("resetting session", slog.String("user_id", userID), sl.Err(err))
	}
	return Render(e.fallbacks.Reset), false
}

func (e *Engine) emit(userID string, flowName FlowID, state StateID, outcome string) {
	if e.sink == nil {
		return
	}
	e.sink.DispatchHandled(DispatchEvent{
		UserID:  userID,
		Flow:    string(flowName),
		State:   string(state),
		Outcome: outcome,
	})
}
