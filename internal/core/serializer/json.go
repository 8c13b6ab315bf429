package serializer

import (
	"encoding/json"

	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

// JSON 基于 encoding/json 的序列化器
type JSON struct{}

var _ interfaces.Serializer = JSON{}

// NewJSON 创建 JSON 序列化器
func NewJSON() JSON {
	return JSON{}
}

// Serialize 序列化
func (JSON) Serialize(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, types.NewSerializationError("serialize", v, err)
	}
	return data, nil
}

// Deserialize 反序列化
func (JSON) Deserialize(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return types.NewSerializationError("deserialize", v, err)
	}
	return nil
}
