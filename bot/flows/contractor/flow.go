// Package contractor implements the main onboarding conversation: finding a
// contractor in the sheet, verifying their identity or registering a new one,
// and recording the payout amount for a pending invoice.
package contractor

import (
	"IzdatBot/bot/flow"
	"IzdatBot/bot/replies"
)

const (
	FlowName  flow.FlowID = "contractor_onboarding"
	Namespace             = "ctr"
	Trigger               = "/start"
)

const (
	stateLookup       flow.StateID = "lookup"
	stateVerification flow.StateID = "waiting_verification"
	stateType         flow.StateID = "waiting_type"
	stateData         flow.StateID = "waiting_data"
	stateAmount       flow.StateID = "waiting_amount"
)

const (
	handlerLookup      = "contractor.lookup"
	handlerVerify      = "contractor.verify"
	handlerChooseType  = "contractor.choose_type"
	handlerCollectData = "contractor.collect_data"
	handlerAmount      = "contractor.amount"
)

const (
	actionPick = "pick"
	actionNone = "none"
)

// context keys carried across states
const (
	ctxContractorID = "contractor_id"
	ctxAttempts     = "attempts"
	ctxType         = "type"
	ctxCollected    = "collected"
)

const maxCodeAttempts = 3

// Definition builds the onboarding flow table.
func Definition() *flow.Definition {
	return &flow.Definition{
		Name:       FlowName,
		Namespace:  Namespace,
		Trigger:    Trigger,
		EntryState: stateLookup,
		States: map[flow.StateID]flow.StateSpec{
			stateLookup: {
				Handler: handlerLookup,
				Prompt:  &flow.RenderInstruction{Text: replies.Greeting},
				Next:    []flow.StateID{stateVerification, stateType, stateAmount},
			},
			stateVerification: {
				Handler: handlerVerify,
				Next:    []flow.StateID{stateAmount},
			},
			stateType: {
				Handler: handlerChooseType,
				Next:    []flow.StateID{stateData},
			},
			stateData: {
				Handler: handlerCollectData,
				Next:    []flow.StateID{stateAmount},
			},
			stateAmount: {
				Handler: handlerAmount,
			},
		},
	}
}
