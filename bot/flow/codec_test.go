package flow_test

import (
	"strings"
	"testing"

	"IzdatBot/bot/flow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := flow.NewCodec()

	cases := []flow.CallbackPayload{
		{Namespace: "upd", Action: "field", Argument: "phone"},
		{Namespace: "ctr", Action: "dup", Argument: "C-0042"},
		{Namespace: "upd", Action: "confirm", Argument: ""},
		{Namespace: "ctr", Action: "select", Argument: "a:b:c"},
		{Namespace: "upd", Action: "field", Argument: "Иванов"},
	}

	for _, p := range cases {
		encoded, err := codec.Encode(p)
		require.NoError(t, err, "encode %+v", p)

		decoded, err := codec.Decode(encoded)
		require.NoError(t, err, "decode %q", encoded)
		assert.Equal(t, p, decoded)
	}
}

func TestCodec_PayloadTooLarge(t *testing.T) {
	codec := flow.NewCodec()

	encoded, err := codec.Encode(flow.CallbackPayload{
		Namespace: "ctr",
		Action:    "select",
		Argument:  strings.Repeat("x", 100),
	})
	require.ErrorIs(t, err, flow.ErrPayloadTooLarge)
	assert.Empty(t, encoded, "no partial output on failure")
}

func TestCodec_CustomLimit(t *testing.T) {
	codec := flow.NewCodecWithLimit(16)

	_, err := codec.Encode(flow.CallbackPayload{Namespace: "ns", Action: "act", Argument: "1234567890"})
	require.ErrorIs(t, err, flow.ErrPayloadTooLarge)

	encoded, err := codec.Encode(flow.CallbackPayload{Namespace: "ns", Action: "act", Argument: "123"})
	require.NoError(t, err)
	assert.Equal(t, "ns:act:123", encoded)
}

func TestCodec_EncodeRejectsSeparatorInHead(t *testing.T) {
	codec := flow.NewCodec()

	_, err := codec.Encode(flow.CallbackPayload{Namespace: "a:b", Action: "act"})
	require.ErrorIs(t, err, flow.ErrMalformedPayload)

	_, err = codec.Encode(flow.CallbackPayload{Namespace: "ns", Action: "a:b"})
	require.ErrorIs(t, err, flow.ErrMalformedPayload)

	_, err = codec.Encode(flow.CallbackPayload{Namespace: "", Action: "act"})
	require.ErrorIs(t, err, flow.ErrMalformedPayload)
}

func TestCodec_DecodeMalformed(t *testing.T) {
	codec := flow.NewCodec()

	for _, bad := range []string{
		"",
		"noseparators",
		"onlyone:part",
		":action:arg",
		"ns::arg",
		strings.Repeat("y", 200),
	} {
		_, err := codec.Decode(bad)
		assert.ErrorIs(t, err, flow.ErrMalformedPayload, "input %q", bad)
	}
}
