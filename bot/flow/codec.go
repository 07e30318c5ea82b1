package flow

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxPayloadSize is the hard limit on an encoded callback payload.
// Telegram caps callback_data at 64 bytes; other transports are no roomier.
const DefaultMaxPayloadSize = 64

const payloadSep = ":"

var (
	// ErrPayloadTooLarge means the encoded payload would exceed the
	// transport limit. Callers must shorten the argument (use an
	// identifier, not a display name); the codec never truncates.
	ErrPayloadTooLarge = errors.New("callback payload too large")

	// ErrMalformedPayload means a string does not match the payload scheme.
	ErrMalformedPayload = errors.New("malformed callback payload")
)

// Codec encodes (namespace, action, argument) triples into the compact
// opaque strings carried on inline buttons.
//
// Layout: "namespace:action:argument". The argument is last, so it may
// freely contain the separator; namespace and action may not.
type Codec struct {
	maxSize int
}

// NewCodec creates a codec with the default payload size limit.
func NewCodec() *Codec {
	return &Codec{maxSize: DefaultMaxPayloadSize}
}

// NewCodecWithLimit creates a codec with a custom payload size limit.
func NewCodecWithLimit(maxSize int) *Codec {
	if maxSize <= 0 {
		maxSize = DefaultMaxPayloadSize
	}
	return &Codec{maxSize: maxSize}
}

// Encode produces the wire form of a payload, or fails if the result would
// exceed the size limit.
func (c *Codec) Encode(p CallbackPayload) (string, error) {
	if p.Namespace == "" || strings.Contains(p.Namespace, payloadSep) {
		return "", fmt.Errorf("%w: bad namespace %q", ErrMalformedPayload, p.Namespace)
	}
	if p.Action == "" || strings.Contains(p.Action, payloadSep) {
		return "", fmt.Errorf("%w: bad action %q", ErrMalformedPayload, p.Action)
	}
	encoded := p.Namespace + payloadSep + p.Action + payloadSep + p.Argument
	if len(encoded) > c.maxSize {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, len(encoded), c.maxSize)
	}
	return encoded, nil
}

// Decode parses a wire payload back into its triple. Any string that does
// not match the scheme yields ErrMalformedPayload; the caller treats that as
// a user-facing condition, never a crash.
func (c *Codec) Decode(encoded string) (CallbackPayload, error) {
	if encoded == "" || len(encoded) > c.maxSize {
		return CallbackPayload{}, fmt.Errorf("%w: %d bytes", ErrMalformedPayload, len(encoded))
	}
	parts := strings.SplitN(encoded, payloadSep, 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return CallbackPayload{}, fmt.Errorf("%w: %q", ErrMalformedPayload, encoded)
	}
	return CallbackPayload{
		Namespace: parts[0],
		Action:    parts[1],
		Argument:  parts[2],
	}, nil
}

// MustEncode is Encode for static button tables built at startup, where a
// failure is a programming error.
func (c *Codec) MustEncode(p CallbackPayload) string {
	encoded, err := c.Encode(p)
	if err != nil {
		panic(err)
	}
	return encoded
}
