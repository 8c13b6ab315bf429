package reliable

import (
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
	"github.com/dep2p/go-duplexmsg/internal/util/notify"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
	"github.com/dep2p/go-duplexmsg/pkg/types"
)

var logger = log.Logger("protocol/reliable")

const component = "reliable"

// deliveries 发送方的投递跟踪与通知，Sender 与 Receiver 共用
type deliveries struct {
	cfg *Config
	ser interfaces.Serializer

	tracker      *tracker
	delivered    *notify.List[types.DeliveryEvent]
	notDelivered *notify.List[types.DeliveryEvent]
}

func newDeliveries(cfg *Config) *deliveries {
	tcfg := typed.DefaultConfig()
	for _, opt := range cfg.Typed {
		opt(tcfg)
	}

	d := &deliveries{
		cfg:          cfg,
		ser:          tcfg.Serializer,
		delivered:    notify.NewList[types.DeliveryEvent]("reliable.delivered"),
		notDelivered: notify.NewList[types.DeliveryEvent]("reliable.not_delivered"),
	}
	d.tracker = newTracker(cfg, d.expired)
	return d
}

// OnDelivered 订阅投递成功
func (d *deliveries) OnDelivered(fn func(types.DeliveryEvent)) *notify.Handle {
	return d.delivered.Subscribe(fn)
}

// OnNotDelivered 订阅投递超时
func (d *deliveries) OnNotDelivered(fn func(types.DeliveryEvent)) *notify.Handle {
	return d.notDelivered.Subscribe(fn)
}

// PendingCount 返回等待确认的消息数
func (d *deliveries) PendingCount() int {
	return d.tracker.len()
}

// send 登记后发送，发送失败时撤销登记
//
// 超时从发送返回后开始计算；发送失败只以错误返回，不产生投递通知。
func (d *deliveries) send(peerID string, payload []byte, transmit func(types.ReliableEnvelope) error) (string, error) {
	id := types.NewMessageID()
	if err := d.tracker.add(id, peerID); err != nil {
		return "", err
	}

	env := types.ReliableEnvelope{Kind: types.KindMessage, MessageID: id, Payload: payload}
	if err := transmit(env); err != nil {
		d.tracker.remove(id)
		return "", err
	}
	if expired := d.tracker.commit(id); len(expired) > 0 {
		d.expired(expired)
	}

	logger.Debug("已发送可靠消息", "id", log.TruncateID(id, 8), "peer", log.TruncateID(peerID, 8))
	return id, nil
}

// acknowledged 处理确认；重复或迟到的确认被忽略
func (d *deliveries) acknowledged(messageID string) {
	rec, ok := d.tracker.remove(messageID)
	if !ok {
		logger.Debug("忽略未跟踪的确认", "id", log.TruncateID(messageID, 8))
		return
	}

	d.cfg.Reporter.DeliveryResolved(true)
	d.delivered.Emit(types.DeliveryEvent{
		MessageID: rec.messageID,
		PeerID:    rec.peerID,
		Time:      d.cfg.Clock.Now(),
	})
}

func (d *deliveries) expired(recs []record) {
	now := d.cfg.Clock.Now()
	for _, rec := range recs {
		logger.Debug("确认超时", "id", log.TruncateID(rec.messageID, 8), "peer", log.TruncateID(rec.peerID, 8))
		d.cfg.Reporter.DeliveryResolved(false)
		d.notDelivered.Emit(types.DeliveryEvent{
			MessageID: rec.messageID,
			PeerID:    rec.peerID,
			Time:      now,
		})
	}
}

// Close 停止清扫，仍在等待确认的消息全部通知 NotDelivered
func (d *deliveries) Close() {
	d.tracker.close()
}

func ackFor(env types.ReliableEnvelope) types.ReliableEnvelope {
	return types.ReliableEnvelope{Kind: types.KindAcknowledge, MessageID: env.MessageID}
}
