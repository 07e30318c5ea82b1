// Package update implements the requisite-update conversation: a verified
// contractor picks one of their fields and sends a new value for it.
package update

import (
	"fmt"

	"IzdatBot/bot/flow"
	"IzdatBot/bot/replies"
	"IzdatBot/bot/ui"
)

const (
	FlowName  flow.FlowID = "update_contractor"
	Namespace             = "upd"
	Trigger               = "/start_update"
)

const (
	stateFieldChoice flow.StateID = "awaiting_field_choice"
	stateValue       flow.StateID = "awaiting_value"
)

const (
	handlerChooseField = "update.choose_field"
	handlerSetValue    = "update.set_value"
)

var editableFields = []ui.Choice{
	{Label: "Телефон", Arg: "phone"},
	{Label: "Email", Arg: "email"},
	{Label: "Номер счёта", Arg: "bank_account"},
	{Label: "Адрес", Arg: "address"},
}

// Definition builds the flow table. The entry prompt carries the field
// keyboard, so starting the flow needs no handler round-trip.
func Definition(codec *flow.Codec) (*flow.Definition, error) {
	rows, err := ui.Selection(codec, Namespace, "field", editableFields)
	if err != nil {
		return nil, fmt.Errorf("build field keyboard: %w", err)
	}

	return &flow.Definition{
		Name:       FlowName,
		Namespace:  Namespace,
		Trigger:    Trigger,
		EntryState: stateFieldChoice,
		States: map[flow.StateID]flow.StateSpec{
			stateFieldChoice: {
				Handler: handlerChooseField,
				Prompt: &flow.RenderInstruction{
					Text:    replies.Update.ChooseField,
					Buttons: rows,
				},
				Next: []flow.StateID{stateValue},
			},
			stateValue: {
				Handler: handlerSetValue,
			},
		},
	}, nil
}
