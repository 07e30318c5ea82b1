package flow

import (
	"fmt"
	"sort"
)

// FlowID is a unique identifier for a flow.
type FlowID string

// StateID is a unique identifier for a state within a flow.
type StateID string

// StateSpec describes one state: which handler runs when an event arrives,
// an optional static rendering shown on entry, and the transition targets
// the handler is allowed to return.
type StateSpec struct {
	Handler string
	Prompt  *RenderInstruction
	Next    []StateID
}

// Definition is the immutable, declarative description of one flow. Loaded
// once at startup and shared read-only across all sessions.
type Definition struct {
	Name       FlowID
	Namespace  string
	Trigger    string
	EntryState StateID
	States     map[StateID]StateSpec
}

// Registry holds all flow definitions and their handler bindings. It is
// populated during startup and must pass Validate before the engine runs.
type Registry struct {
	flows      map[FlowID]*Definition
	handlers   map[string]Handler
	triggers   map[string]FlowID
	namespaces map[string]FlowID
}

// NewRegistry creates an empty flow registry.
func NewRegistry() *Registry {
	return &Registry{
		flows:      make(map[FlowID]*Definition),
		handlers:   make(map[string]Handler),
		triggers:   make(map[string]FlowID),
		namespaces: make(map[string]FlowID),
	}
}

// AddFlow registers a flow definition.
func (r *Registry) AddFlow(def *Definition) error {
	if def.Name == "" {
		return fmt.Errorf("flow definition without a name")
	}
	if _, exists := r.flows[def.Name]; exists {
		return fmt.Errorf("duplicate flow: %s", def.Name)
	}
	if def.Trigger != "" {
		if owner, exists := r.triggers[def.Trigger]; exists {
			return fmt.Errorf("trigger %q already owned by flow %s", def.Trigger, owner)
		}
		r.triggers[def.Trigger] = def.Name
	}
	if def.Namespace != "" {
		if owner, exists := r.namespaces[def.Namespace]; exists {
			return fmt.Errorf("namespace %q already owned by flow %s", def.Namespace, owner)
		}
		r.namespaces[def.Namespace] = def.Name
	}
	r.flows[def.Name] = def
	return nil
}

// Bind associates a handler identifier with its implementation.
func (r *Registry) Bind(handlerID string, h Handler) error {
	if handlerID == "" || h == nil {
		return fmt.Errorf("invalid handler binding: %q", handlerID)
	}
	if _, exists := r.handlers[handlerID]; exists {
		return fmt.Errorf("duplicate handler binding: %s", handlerID)
	}
	r.handlers[handlerID] = h
	return nil
}

// Validate checks every definition for dangling references: the entry state
// and all declared next-states must exist, and every state must have exactly
// one bound handler. A failure here is a programming error and must abort
// startup.
func (r *Registry) Validate() error {
	for _, name := range r.flowNames() {
		def := r.flows[name]
		if len(def.States) == 0 {
			return fmt.Errorf("flow %s: no states", name)
		}
		if _, ok := def.States[def.EntryState]; !ok {
			return fmt.Errorf("flow %s: entry state %q does not exist", name, def.EntryState)
		}
		for stateName, spec := range def.States {
			if spec.Handler == "" {
				return fmt.Errorf("flow %s: state %q has no handler", name, stateName)
			}
			if _, ok := r.handlers[spec.Handler]; !ok {
				return fmt.Errorf("flow %s: state %q references unbound handler %q",
					name, stateName, spec.Handler)
			}
			for _, next := range spec.Next {
				if _, ok := def.States[next]; !ok {
					return fmt.Errorf("flow %s: state %q declares unknown transition target %q",
						name, stateName, next)
				}
			}
		}
	}
	return nil
}

// flowNames returns flow names in stable order so validation errors are
// deterministic.
func (r *Registry) flowNames() []FlowID {
	names := make([]FlowID, 0, len(r.flows))
	for name := range r.flows {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (r *Registry) flow(name FlowID) (*Definition, bool) {
	def, ok := r.flows[name]
	return def, ok
}

func (r *Registry) byTrigger(command string) (*Definition, bool) {
	name, ok := r.triggers[command]
	if !ok {
		return nil, false
	}
	return r.flows[name], true
}

func (r *Registry) knownNamespace(ns string) bool {
	_, ok := r.namespaces[ns]
	return ok
}

func (r *Registry) handler(id string) (Handler, bool) {
	h, ok := r.handlers[id]
	return h, ok
}

// allows a handler-returned target: it must be an existing state declared in
// the current state's transition list.
func (def *Definition) allows(from StateID, to StateID) bool {
	spec, ok := def.States[from]
	if !ok {
		return false
	}
	for _, next := range spec.Next {
		if next == to {
			return true
		}
	}
	return false
}
