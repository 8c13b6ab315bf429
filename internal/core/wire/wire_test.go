package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-duplexmsg/pkg/types"
)

func TestMarshal_TaggedEnvelopeBytes(t *testing.T) {
	data, err := Marshal(types.TaggedEnvelope{TypeTag: "a", Payload: []byte{0x01}})
	require.NoError(t, err)

	// field 1 (bytes) "a", field 2 (bytes) 0x01
	assert.Equal(t, []byte{0x0a, 0x01, 'a', 0x12, 0x01, 0x01}, data)
}

func TestReliableEnvelope_AbsentAndEmptyPayload(t *testing.T) {
	ack := &types.ReliableEnvelope{Kind: types.KindAcknowledge, MessageID: "m-1"}
	data, err := Marshal(ack)
	require.NoError(t, err)

	var got types.ReliableEnvelope
	require.NoError(t, Unmarshal(data, &got))
	assert.Equal(t, types.KindAcknowledge, got.Kind)
	assert.Equal(t, "m-1", got.MessageID)
	assert.Nil(t, got.Payload)

	msg := &types.ReliableEnvelope{Kind: types.KindMessage, MessageID: "m-2", Payload: []byte{}}
	data, err = Marshal(msg)
	require.NoError(t, err)

	require.NoError(t, Unmarshal(data, &got))
	assert.Equal(t, types.KindMessage, got.Kind)
	assert.NotNil(t, got.Payload)
	assert.Empty(t, got.Payload)
}

func TestCommandMessages(t *testing.T) {
	req := types.CommandRequest{CommandID: "sum", Kind: types.RequestPause, InputFragment: []byte("3,4")}
	data, err := Marshal(req)
	require.NoError(t, err)

	var gotReq types.CommandRequest
	require.NoError(t, Unmarshal(data, &gotReq))
	assert.Equal(t, req, gotReq)

	resp := types.CommandResponse{
		CommandID:      "sum",
		State:          types.StateFailed,
		ReturnFragment: []byte("7"),
		SequenceID:     "seq",
		IsLast:         true,
		ErrorMessage:   "boom",
	}
	data, err = Marshal(&resp)
	require.NoError(t, err)

	var gotResp types.CommandResponse
	require.NoError(t, Unmarshal(data, &gotResp))
	assert.Equal(t, resp, gotResp)
}

func TestUnmarshal_SkipsUnknownFields(t *testing.T) {
	data, err := Marshal(types.TaggedEnvelope{TypeTag: "t", Payload: []byte("p")})
	require.NoError(t, err)

	data = protowire.AppendTag(data, 99, protowire.VarintType)
	data = protowire.AppendVarint(data, 12345)

	var got types.TaggedEnvelope
	require.NoError(t, Unmarshal(data, &got))
	assert.Equal(t, "t", got.TypeTag)
	assert.Equal(t, []byte("p"), got.Payload)
}

func TestUnmarshal_Malformed(t *testing.T) {
	var got types.CommandRequest

	// 长度前缀超出数据
	err := Unmarshal([]byte{0x0a, 0x05, 'a'}, &got)
	assert.Error(t, err)

	// 字段 2 应为 varint
	err = Unmarshal([]byte{0x12, 0x01, 0x01}, &got)
	assert.Error(t, err)
}

func TestUnsupportedType(t *testing.T) {
	_, err := Marshal(42)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	var n int
	assert.ErrorIs(t, Unmarshal(nil, &n), ErrUnsupportedType)

	assert.True(t, Supports(&types.ReliableEnvelope{}))
	assert.False(t, Supports("x"))
}
