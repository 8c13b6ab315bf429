package serializer

import (
	"sync"

	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
)

// PerPeer 按对端选择序列化器
//
// 未单独设置的对端使用默认序列化器。
type PerPeer struct {
	def interfaces.Serializer

	mu    sync.RWMutex
	peers map[string]interfaces.Serializer
}

var _ interfaces.PeerSerializer = (*PerPeer)(nil)

// NewPerPeer 创建按对端选择的序列化器
func NewPerPeer(def interfaces.Serializer) *PerPeer {
	return &PerPeer{
		def:   def,
		peers: make(map[string]interfaces.Serializer),
	}
}

// Set 为指定对端设置序列化器，s 为 nil 时恢复默认
func (p *PerPeer) Set(peerID string, s interfaces.Serializer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s == nil {
		delete(p.peers, peerID)
		return
	}
	p.peers[peerID] = s
}

// ForPeer 返回用于指定对端的序列化器
func (p *PerPeer) ForPeer(peerID string) interfaces.Serializer {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if s, ok := p.peers[peerID]; ok {
		return s
	}
	return p.def
}

// Serialize 使用默认序列化器
func (p *PerPeer) Serialize(v any) ([]byte, error) {
	return p.def.Serialize(v)
}

// Deserialize 使用默认序列化器
func (p *PerPeer) Deserialize(data []byte, v any) error {
	return p.def.Deserialize(data, v)
}
