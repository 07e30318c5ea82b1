package flow

import "time"

// Session is the persisted per-user conversation record: which flow and
// state are active, the accumulated context, and a monotonically increasing
// version used for optimistic concurrency.
type Session struct {
	UserID       string    `json:"user_id" bson:"user_id"`
	FlowName     FlowID    `json:"flow_name" bson:"flow_name"`
	CurrentState StateID   `json:"current_state" bson:"current_state"`
	Context      Context   `json:"context" bson:"context"`
	Version      int64     `json:"version" bson:"version"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// NewSession creates a fresh session positioned at a flow's entry state.
func NewSession(userID string, flowName FlowID, entry StateID) *Session {
	return &Session{
		UserID:       userID,
		FlowName:     flowName,
		CurrentState: entry,
		Context:      make(Context),
		Version:      1,
		UpdatedAt:    time.Now(),
	}
}

// Merge folds handler-returned updates into the session context.
func (s *Session) Merge(updates map[string]any) {
	if len(updates) == 0 {
		return
	}
	if s.Context == nil {
		s.Context = make(Context)
	}
	for k, v := range updates {
		s.Context[k] = v
	}
}

// Clone returns a deep-enough copy: the context map is copied, values are
// shared. Stores hand out clones so callers never alias persisted state.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Context = s.Context.clone()
	return &cp
}
