package flow

import "context"

// Context is the accumulated conversation data for one session. Handlers
// receive a copy and return updates through Result; they never mutate the
// session directly.
type Context map[string]any

// GetString retrieves a string value from the context.
func (c Context) GetString(key string) string {
	if v, ok := c[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// GetInt retrieves an integer value from the context.
func (c Context) GetInt(key string) int {
	if v, ok := c[key]; ok {
		switch val := v.(type) {
		case int:
			return val
		case int32:
			return int(val)
		case int64:
			return int(val)
		case float64:
			return int(val)
		}
	}
	return 0
}

func (c Context) clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Request is everything a handler gets about the dispatch in progress.
type Request struct {
	UserID  string
	Flow    FlowID
	State   StateID
	Context Context
	Event   Event
}

// Result is what a handler returns: what to show the user, where the
// conversation goes next, and any context updates to merge in.
type Result struct {
	Render  RenderInstruction
	Outcome Outcome
	Context map[string]any
	Err     error
}

// Handler processes one event for one state. It may call external
// collaborators but must not touch engine-owned state; everything it wants
// persisted goes through Result.
type Handler func(ctx context.Context, req Request) Result

type outcomeKind int

const (
	outcomeStay outcomeKind = iota
	outcomeMove
	outcomeComplete
	outcomeCancel
)

// Outcome is the tagged transition result of a handler: stay put, move to a
// named state, or terminate the session (completed or cancelled).
type Outcome struct {
	kind   outcomeKind
	target StateID
}

// Stay keeps the session in its current state.
func Stay() Outcome {
	return Outcome{kind: outcomeStay}
}

// MoveTo transitions the session to the named state.
func MoveTo(target StateID) Outcome {
	return Outcome{kind: outcomeMove, target: target}
}

// Complete ends the flow successfully and deletes the session.
func Complete() Outcome {
	return Outcome{kind: outcomeComplete}
}

// Cancel aborts the flow and deletes the session.
func Cancel() Outcome {
	return Outcome{kind: outcomeCancel}
}

// IsTerminal reports whether the outcome deletes the session.
func (o Outcome) IsTerminal() bool {
	return o.kind == outcomeComplete || o.kind == outcomeCancel
}

// Target returns the destination state for MoveTo outcomes.
func (o Outcome) Target() StateID {
	return o.target
}

func (o Outcome) String() string {
	switch o.kind {
	case outcomeMove:
		return "move_to:" + string(o.target)
	case outcomeComplete:
		return "complete"
	case outcomeCancel:
		return "cancel"
	default:
		return "stay"
	}
}
