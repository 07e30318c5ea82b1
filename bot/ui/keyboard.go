// Package ui builds inline keyboards for flow renderings. Buttons carry
// encoded callback payloads; the transport layer maps them onto the
// messenger's own markup types.
package ui

import (
	"fmt"

	"IzdatBot/bot/flow"
)

// Choice is one selectable item: a visible label plus a callback argument.
type Choice struct {
	Label string
	Arg   string
}

// Selection lays out choices one per row, all sharing a namespace and action.
// Choices whose payload would not fit the codec limit are skipped with an
// error so callers can fall back to a numbered text menu.
func Selection(codec *flow.Codec, namespace, action string, choices []Choice) ([][]flow.Button, error) {
	rows := make([][]flow.Button, 0, len(choices))
	for _, ch := range choices {
		data, err := codec.Encode(flow.CallbackPayload{
			Namespace: namespace,
			Action:    action,
			Argument:  ch.Arg,
		})
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", ch.Arg, err)
		}
		rows = append(rows, []flow.Button{{Text: ch.Label, Data: data}})
	}
	return rows, nil
}

// Row lays out choices side by side on a single row.
func Row(codec *flow.Codec, namespace, action string, choices []Choice) ([]flow.Button, error) {
	row := make([]flow.Button, 0, len(choices))
	for _, ch := range choices {
		data, err := codec.Encode(flow.CallbackPayload{
			Namespace: namespace,
			Action:    action,
			Argument:  ch.Arg,
		})
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", ch.Arg, err)
		}
		row = append(row, flow.Button{Text: ch.Label, Data: data})
	}
	return row, nil
}
