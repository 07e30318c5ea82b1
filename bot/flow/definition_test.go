package flow_test

import (
	"context"
	"testing"

	"IzdatBot/bot/flow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(_ context.Context, _ flow.Request) flow.Result {
	return flow.Result{Outcome: flow.Stay()}
}

func twoStateDefinition() *flow.Definition {
	return &flow.Definition{
		Name:       "update_contractor",
		Namespace:  "upd",
		Trigger:    "/start_update",
		EntryState: "awaiting_field_choice",
		States: map[flow.StateID]flow.StateSpec{
			"awaiting_field_choice": {
				Handler: "update.choose_field",
				Prompt: &flow.RenderInstruction{
					Text: "Which field do you want to update?",
					Buttons: [][]flow.Button{{
						{Text: "Phone", Data: "upd:field:phone"},
						{Text: "Email", Data: "upd:field:email"},
					}},
				},
				Next: []flow.StateID{"awaiting_value"},
			},
			"awaiting_value": {
				Handler: "update.set_value",
			},
		},
	}
}

func TestRegistry_ValidateOk(t *testing.T) {
	reg := flow.NewRegistry()
	require.NoError(t, reg.AddFlow(twoStateDefinition()))
	require.NoError(t, reg.Bind("update.choose_field", noopHandler))
	require.NoError(t, reg.Bind("update.set_value", noopHandler))

	require.NoError(t, reg.Validate())
}

func TestRegistry_DanglingTransitionTarget(t *testing.T) {
	def := twoStateDefinition()
	spec := def.States["awaiting_field_choice"]
	spec.Next = []flow.StateID{"no_such_state"}
	def.States["awaiting_field_choice"] = spec

	reg := flow.NewRegistry()
	require.NoError(t, reg.AddFlow(def))
	require.NoError(t, reg.Bind("update.choose_field", noopHandler))
	require.NoError(t, reg.Bind("update.set_value", noopHandler))

	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_state")
}

func TestRegistry_MissingEntryState(t *testing.T) {
	def := twoStateDefinition()
	def.EntryState = "nowhere"

	reg := flow.NewRegistry()
	require.NoError(t, reg.AddFlow(def))
	require.NoError(t, reg.Bind("update.choose_field", noopHandler))
	require.NoError(t, reg.Bind("update.set_value", noopHandler))

	require.Error(t, reg.Validate())
}

func TestRegistry_UnboundHandler(t *testing.T) {
	reg := flow.NewRegistry()
	require.NoError(t, reg.AddFlow(twoStateDefinition()))
	require.NoError(t, reg.Bind("update.choose_field", noopHandler))

	err := reg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update.set_value")
}

func TestRegistry_DuplicateTrigger(t *testing.T) {
	reg := flow.NewRegistry()
	require.NoError(t, reg.AddFlow(twoStateDefinition()))

	other := twoStateDefinition()
	other.Name = "another"
	other.Namespace = "oth"
	require.Error(t, reg.AddFlow(other), "same trigger must be rejected")
}

func TestRegistry_DuplicateFlow(t *testing.T) {
	reg := flow.NewRegistry()
	require.NoError(t, reg.AddFlow(twoStateDefinition()))
	require.Error(t, reg.AddFlow(twoStateDefinition()))
}
