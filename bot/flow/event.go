package flow

// CallbackPayload is the decoded form of the opaque string carried on an
// inline button: which feature owns the button, the verb, and an argument.
type CallbackPayload struct {
	Namespace string
	Action    string
	Argument  string
}

// Event is an inbound user action: a plain text message or a button callback.
// Callback events arrive with the raw encoded payload; the engine decodes it
// before the handler sees the event.
type Event struct {
	text     string
	encoded  string
	callback *CallbackPayload
}

// NewTextEvent wraps a plain text message.
func NewTextEvent(raw string) Event {
	return Event{text: raw}
}

// NewCallbackEvent wraps a raw, still-encoded button payload.
func NewCallbackEvent(encoded string) Event {
	return Event{encoded: encoded}
}

// IsCallback reports whether the event is a button callback.
func (e Event) IsCallback() bool {
	return e.callback != nil || e.encoded != ""
}

// Text returns the raw text of a text event, or "" for callbacks.
func (e Event) Text() string {
	return e.text
}

// Callback returns the decoded payload, or nil if the event is a text event
// or has not been decoded yet.
func (e Event) Callback() *CallbackPayload {
	return e.callback
}

// Button is a single inline button with its pre-encoded callback payload.
type Button struct {
	Text string
	Data string
}

// RenderInstruction tells the transport what to show the user: a text body
// and an optional inline keyboard.
type RenderInstruction struct {
	Text    string
	Buttons [][]Button
}

// IsZero reports whether the instruction carries nothing to render.
func (r RenderInstruction) IsZero() bool {
	return r.Text == "" && len(r.Buttons) == 0
}

// Render is a convenience constructor for a text-only instruction.
func Render(text string) RenderInstruction {
	return RenderInstruction{Text: text}
}
