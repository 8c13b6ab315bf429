// Package interfaces 定义 go-duplexmsg 公共接口
//
// 本文件定义序列化器接口。
package interfaces

// Serializer 序列化器
//
// Deserialize 的 v 必须为指针。输入格式错误时返回的错误应满足
// errors.Is(err, types.ErrSerialization)。
type Serializer interface {
	// Serialize 序列化
	Serialize(v any) ([]byte, error)

	// Deserialize 反序列化到 v
	Deserialize(data []byte, v any) error
}

// PeerSerializer 可按对端提供变体的序列化器（例如按连接压缩或加密）
type PeerSerializer interface {
	Serializer

	// ForPeer 返回用于指定对端的序列化器
	ForPeer(peerID string) Serializer
}

// SerializerFor 返回 s 针对 peerID 的变体
//
// s 未实现 PeerSerializer 时直接返回 s。
func SerializerFor(s Serializer, peerID string) Serializer {
	if ps, ok := s.(PeerSerializer); ok {
		if v := ps.ForPeer(peerID); v != nil {
			return v
		}
	}
	return s
}
