package wire

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-duplexmsg/pkg/types"
)

func taggedField(m *types.TaggedEnvelope, num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		v, n, err := consumeBytes(typ, b)
		m.TypeTag = string(v)
		return n, err
	case 2:
		v, n, err := consumeBytes(typ, b)
		m.Payload = v
		return n, err
	}
	return -1, nil
}

func reliableField(m *types.ReliableEnvelope, num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		v, n, err := consumeVarint(typ, b)
		m.Kind = types.EnvelopeKind(v)
		return n, err
	case 2:
		v, n, err := consumeBytes(typ, b)
		m.MessageID = string(v)
		return n, err
	case 3:
		v, n, err := consumeBytes(typ, b)
		m.Payload = v
		return n, err
	}
	return -1, nil
}

func requestField(m *types.CommandRequest, num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		v, n, err := consumeBytes(typ, b)
		m.CommandID = string(v)
		return n, err
	case 2:
		v, n, err := consumeVarint(typ, b)
		m.Kind = types.RequestKind(v)
		return n, err
	case 3:
		v, n, err := consumeBytes(typ, b)
		m.InputFragment = v
		return n, err
	}
	return -1, nil
}

func responseField(m *types.CommandResponse, num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	switch num {
	case 1:
		v, n, err := consumeBytes(typ, b)
		m.CommandID = string(v)
		return n, err
	case 2:
		v, n, err := consumeVarint(typ, b)
		m.State = types.CommandState(v)
		return n, err
	case 3:
		v, n, err := consumeBytes(typ, b)
		m.ReturnFragment = v
		return n, err
	case 4:
		v, n, err := consumeBytes(typ, b)
		m.SequenceID = string(v)
		return n, err
	case 5:
		v, n, err := consumeVarint(typ, b)
		m.IsLast = protowire.DecodeBool(v)
		return n, err
	case 6:
		v, n, err := consumeBytes(typ, b)
		m.ErrorMessage = string(v)
		return n, err
	}
	return -1, nil
}
