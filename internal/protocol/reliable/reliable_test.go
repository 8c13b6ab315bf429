package reliable

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-duplexmsg/internal/core/duplex/mem"
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
	"github.com/dep2p/go-duplexmsg/internal/util/notify"
	"github.com/dep2p/go-duplexmsg/pkg/interfaces"
	"github.com/dep2p/go-duplexmsg/pkg/types"
	"github.com/dep2p/go-duplexmsg/tests/testutil"
)

type note struct {
	Text string `json:"text"`
}

// rawPeer 直接操作输入通道的对端，按 ackDelay 决定是否以及何时确认
type rawPeer struct {
	in       *mem.InputChannel
	ackDelay func(id string) (time.Duration, bool)
	received chan types.ReliableEnvelope
}

func (p *rawPeer) OnPeerConnected(string)    {}
func (p *rawPeer) OnPeerDisconnected(string) {}

func (p *rawPeer) OnMessageReceived(peerID string, data []byte) {
	var env types.ReliableEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}
	select {
	case p.received <- env:
	default:
	}

	delay, ok := p.ackDelay(env.MessageID)
	if !ok {
		return
	}
	ack, _ := json.Marshal(types.ReliableEnvelope{Kind: types.KindAcknowledge, MessageID: env.MessageID})
	if delay <= 0 {
		_ = p.in.SendResponse(peerID, ack)
		return
	}
	time.AfterFunc(delay, func() { _ = p.in.SendResponse(peerID, ack) })
}

func newRawPeer(t *testing.T, n *mem.Network, ackDelay func(string) (time.Duration, bool)) *rawPeer {
	t.Helper()

	in, err := n.NewInputChannel(testutil.DefaultChannelID)
	require.NoError(t, err)
	t.Cleanup(in.StopListening)

	p := &rawPeer{in: in, ackDelay: ackDelay, received: make(chan types.ReliableEnvelope, 1024)}
	in.SetHandler(p)
	return p
}

type deliveryLog struct {
	delivered    chan types.DeliveryEvent
	notDelivered chan types.DeliveryEvent
}

func watch(d interface {
	OnDelivered(func(types.DeliveryEvent)) *notify.Handle
	OnNotDelivered(func(types.DeliveryEvent)) *notify.Handle
}) *deliveryLog {
	l := &deliveryLog{
		delivered:    make(chan types.DeliveryEvent, 1024),
		notDelivered: make(chan types.DeliveryEvent, 1024),
	}
	d.OnDelivered(func(ev types.DeliveryEvent) { l.delivered <- ev })
	d.OnNotDelivered(func(ev types.DeliveryEvent) { l.notDelivered <- ev })
	return l
}

func attachedSender(t *testing.T, n *mem.Network, opts ...Option) *Sender[note, note] {
	t.Helper()

	s := NewSender[note, note](opts...)
	t.Cleanup(s.Close)
	require.NoError(t, s.AttachOutputChannel(n.NewOutputChannel(testutil.DefaultChannelID, "client")))
	return s
}

// ============================================================================
// 投递通知
// ============================================================================

// TestSender_AckBeforeTimeout 200ms 超时，50ms 时收到确认：只通知 Delivered
func TestSender_AckBeforeTimeout(t *testing.T) {
	n := mem.NewNetwork()
	newRawPeer(t, n, func(string) (time.Duration, bool) { return 50 * time.Millisecond, true })

	s := attachedSender(t, n, WithAckTimeout(200*time.Millisecond))
	l := watch(s)

	id, err := s.Send(note{Text: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	ev := testutil.Receive(t, l.delivered, testutil.DefaultTimeout)
	assert.Equal(t, id, ev.MessageID)
	assert.Equal(t, "client", ev.PeerID)

	testutil.NoReceive(t, l.notDelivered, 400*time.Millisecond)
	testutil.NoReceive(t, l.delivered, 10*time.Millisecond)
	assert.Zero(t, s.PendingCount())
}

// TestSender_NoAck 确认始终未到：约 200ms 后通知 NotDelivered，跟踪表清空
func TestSender_NoAck(t *testing.T) {
	n := mem.NewNetwork()
	newRawPeer(t, n, func(string) (time.Duration, bool) { return 0, false })

	s := attachedSender(t, n, WithAckTimeout(200*time.Millisecond))
	l := watch(s)

	start := time.Now()
	id, err := s.Send(note{Text: "lost"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.PendingCount())

	ev := testutil.Receive(t, l.notDelivered, testutil.DefaultTimeout)
	elapsed := time.Since(start)
	assert.Equal(t, id, ev.MessageID)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.Less(t, elapsed, time.Second)

	assert.Zero(t, s.PendingCount())
	testutil.NoReceive(t, l.delivered, 50*time.Millisecond)
}

func TestSender_NoAckMockClock(t *testing.T) {
	mock := clock.NewMock()
	n := mem.NewNetwork()
	peer := newRawPeer(t, n, func(string) (time.Duration, bool) { return 0, false })

	s := attachedSender(t, n, WithAckTimeout(200*time.Millisecond), WithClock(mock))
	l := watch(s)

	id, err := s.Send(note{})
	require.NoError(t, err)
	testutil.Receive(t, peer.received, testutil.DefaultTimeout)

	mock.Add(150 * time.Millisecond)
	testutil.NoReceive(t, l.notDelivered, 20*time.Millisecond)

	mock.Add(100 * time.Millisecond)
	ev := testutil.Receive(t, l.notDelivered, testutil.DefaultTimeout)
	assert.Equal(t, id, ev.MessageID)
	assert.False(t, ev.Time.IsZero())
	assert.Zero(t, s.PendingCount())
}

func TestSender_LateAckIgnored(t *testing.T) {
	mock := clock.NewMock()
	n := mem.NewNetwork()
	peer := newRawPeer(t, n, func(string) (time.Duration, bool) { return 0, false })

	s := attachedSender(t, n, WithAckTimeout(100*time.Millisecond), WithClock(mock))
	l := watch(s)

	id, err := s.Send(note{})
	require.NoError(t, err)
	env := testutil.Receive(t, peer.received, testutil.DefaultTimeout)

	mock.Add(time.Second)
	testutil.Receive(t, l.notDelivered, testutil.DefaultTimeout)

	// 超时后的确认不再产生通知
	ack, _ := json.Marshal(types.ReliableEnvelope{Kind: types.KindAcknowledge, MessageID: env.MessageID})
	require.NoError(t, peer.in.SendResponse("client", ack))
	require.NoError(t, peer.in.SendResponse("client", ack))
	testutil.NoReceive(t, l.delivered, 50*time.Millisecond)
	assert.Equal(t, id, env.MessageID)
}

func TestSender_DuplicateAckFiresOnce(t *testing.T) {
	n := mem.NewNetwork()
	peer := newRawPeer(t, n, func(string) (time.Duration, bool) { return 0, true })

	s := attachedSender(t, n)
	l := watch(s)

	_, err := s.Send(note{})
	require.NoError(t, err)
	env := testutil.Receive(t, peer.received, testutil.DefaultTimeout)
	testutil.Receive(t, l.delivered, testutil.DefaultTimeout)

	ack, _ := json.Marshal(types.ReliableEnvelope{Kind: types.KindAcknowledge, MessageID: env.MessageID})
	require.NoError(t, peer.in.SendResponse("client", ack))
	testutil.NoReceive(t, l.delivered, 50*time.Millisecond)
}

// TestSender_ExactlyOneNotification 确认时间围绕超时随机分布，每个 ID 恰好一次通知
func TestSender_ExactlyOneNotification(t *testing.T) {
	n := mem.NewNetwork()
	var mu sync.Mutex
	i := 0
	newRawPeer(t, n, func(string) (time.Duration, bool) {
		mu.Lock()
		defer mu.Unlock()
		i++
		return time.Duration(i%8) * 5 * time.Millisecond, i%5 != 0
	})

	s := attachedSender(t, n, WithAckTimeout(20*time.Millisecond))

	var cmu sync.Mutex
	counts := make(map[string]int)
	total := 0
	record := func(ev types.DeliveryEvent) {
		cmu.Lock()
		counts[ev.MessageID]++
		total++
		cmu.Unlock()
	}
	s.OnDelivered(record)
	s.OnNotDelivered(record)

	const count = 200
	ids := make([]string, 0, count)
	for k := 0; k < count; k++ {
		id, err := s.Send(note{})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	testutil.Eventually(t, 5*time.Second, func() bool {
		cmu.Lock()
		defer cmu.Unlock()
		return total >= count
	}, "每条消息都应得到通知")

	// 等待可能的重复通知
	time.Sleep(100 * time.Millisecond)

	cmu.Lock()
	defer cmu.Unlock()
	assert.Equal(t, count, total)
	for _, id := range ids {
		assert.Equal(t, 1, counts[id], id)
	}
	assert.Zero(t, s.PendingCount())
}

func TestSender_SendFailureUntracks(t *testing.T) {
	n := mem.NewNetwork()
	peer := newRawPeer(t, n, func(string) (time.Duration, bool) { return 0, true })

	s := attachedSender(t, n, WithAckTimeout(20*time.Millisecond))
	l := watch(s)

	require.NoError(t, peer.in.DisconnectPeer("client"))

	_, err := s.Send(note{})
	assert.ErrorIs(t, err, types.ErrNotConnected)
	assert.Zero(t, s.PendingCount())
	testutil.NoReceive(t, l.notDelivered, 100*time.Millisecond)
}

// slowOutput 发送耗时 delay 后返回 err
type slowOutput struct {
	delay time.Duration
	err   error
}

func (o *slowOutput) ChannelID() string                   { return testutil.DefaultChannelID }
func (o *slowOutput) ResponseReceiverID() string          { return "client" }
func (o *slowOutput) SetHandler(interfaces.OutputHandler) {}
func (o *slowOutput) OpenConnection() error               { return nil }
func (o *slowOutput) CloseConnection()                    {}
func (o *slowOutput) IsConnected() bool                   { return true }
func (o *slowOutput) SendMessage([]byte) error            { time.Sleep(o.delay); return o.err }

// TestSender_SlowSendFailureNoNotification 发送耗时超过确认超时后失败：只返回错误
func TestSender_SlowSendFailureNoNotification(t *testing.T) {
	s := NewSender[note, note](WithAckTimeout(20*time.Millisecond), WithSweepInterval(5*time.Millisecond))
	defer s.Close()
	l := watch(s)

	failure := errors.New("connect timeout")
	require.NoError(t, s.AttachOutputChannel(&slowOutput{delay: 100 * time.Millisecond, err: failure}))

	id, err := s.Send(note{Text: "slow"})
	assert.ErrorIs(t, err, failure)
	assert.Empty(t, id)
	assert.Zero(t, s.PendingCount())

	testutil.NoReceive(t, l.notDelivered, 100*time.Millisecond)
	testutil.NoReceive(t, l.delivered, 10*time.Millisecond)
}

// TestSender_TimeoutCountsFromSendReturn 慢发送成功但无确认：NotDelivered 在发送返回之后才触发
func TestSender_TimeoutCountsFromSendReturn(t *testing.T) {
	s := NewSender[note, note](WithAckTimeout(20*time.Millisecond), WithSweepInterval(5*time.Millisecond))
	defer s.Close()
	l := watch(s)

	require.NoError(t, s.AttachOutputChannel(&slowOutput{delay: 100 * time.Millisecond}))

	start := time.Now()
	id, err := s.Send(note{Text: "slow"})
	require.NoError(t, err)
	returned := time.Since(start)

	ev := testutil.Receive(t, l.notDelivered, testutil.DefaultTimeout)
	assert.Equal(t, id, ev.MessageID)
	assert.GreaterOrEqual(t, time.Since(start), returned+20*time.Millisecond)
	testutil.NoReceive(t, l.notDelivered, 50*time.Millisecond)
}

func TestTracker_InFlightSkipped(t *testing.T) {
	mock := clock.NewMock()
	cfg := newConfig([]Option{WithAckTimeout(100 * time.Millisecond), WithClock(mock)})

	expired := make(chan []record, 4)
	tr := newTracker(cfg, func(recs []record) { expired <- recs })

	require.NoError(t, tr.add("sending", "p"))
	mock.Add(time.Second)
	testutil.NoReceive(t, expired, 50*time.Millisecond)
	assert.Equal(t, 1, tr.len())

	// 关闭时发送中的记录保留，commit 时交由调用方通知
	tr.close()
	testutil.NoReceive(t, expired, 10*time.Millisecond)
	recs := tr.commit("sending")
	require.Len(t, recs, 1)
	assert.Equal(t, "sending", recs[0].messageID)
	assert.Zero(t, tr.len())
	assert.Empty(t, tr.commit("sending"))
}

func TestSender_Errors(t *testing.T) {
	s := NewSender[any, note]()
	defer s.Close()

	_, err := s.Send(note{})
	assert.ErrorIs(t, err, types.ErrNotAttached)

	n := mem.NewNetwork()
	newRawPeer(t, n, func(string) (time.Duration, bool) { return 0, true })
	require.NoError(t, s.AttachOutputChannel(n.NewOutputChannel(testutil.DefaultChannelID, "")))

	_, err = s.Send(make(chan int))
	assert.ErrorIs(t, err, types.ErrSerialization)
	assert.Zero(t, s.PendingCount())
}

func TestSender_CloseResolvesPending(t *testing.T) {
	n := mem.NewNetwork()
	newRawPeer(t, n, func(string) (time.Duration, bool) { return 0, false })

	s := attachedSender(t, n, WithAckTimeout(time.Hour))
	l := watch(s)

	id, err := s.Send(note{})
	require.NoError(t, err)

	s.Close()
	ev := testutil.Receive(t, l.notDelivered, testutil.DefaultTimeout)
	assert.Equal(t, id, ev.MessageID)

	_, err = s.Send(note{})
	assert.ErrorIs(t, err, ErrClosed)
}

// ============================================================================
// 双向
// ============================================================================

func TestReceiver_AcksWithoutSubscriber(t *testing.T) {
	n := mem.NewNetwork()
	in, err := n.NewInputChannel(testutil.DefaultChannelID)
	require.NoError(t, err)
	defer in.StopListening()

	r := NewReceiver[note, note]()
	defer r.Close()
	require.NoError(t, r.AttachInputChannel(in))

	s := attachedSender(t, n)
	l := watch(s)

	id, err := s.Send(note{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, id, testutil.Receive(t, l.delivered, testutil.DefaultTimeout).MessageID)
}

func TestReliable_RequestResponse(t *testing.T) {
	n := mem.NewNetwork()
	in, err := n.NewInputChannel(testutil.DefaultChannelID)
	require.NoError(t, err)
	defer in.StopListening()

	r := NewReceiver[note, note]()
	defer r.Close()
	rl := watch(r)
	r.OnRequest(func(ev typed.RequestEvent[note]) {
		if ev.Err != nil {
			return
		}
		_, _ = r.SendResponse(ev.PeerID, note{Text: ev.Value.Text + "!"})
	})
	require.NoError(t, r.AttachInputChannel(in))

	s := attachedSender(t, n)
	sl := watch(s)
	got := make(chan typed.ResponseEvent[note], 1)
	s.OnResponse(func(ev typed.ResponseEvent[note]) { got <- ev })

	_, err = s.Send(note{Text: "hi"})
	require.NoError(t, err)

	resp := testutil.Receive(t, got, testutil.DefaultTimeout)
	require.NoError(t, resp.Err)
	assert.Equal(t, "hi!", resp.Value.Text)

	testutil.Receive(t, sl.delivered, testutil.DefaultTimeout)
	ev := testutil.Receive(t, rl.delivered, testutil.DefaultTimeout)
	assert.Equal(t, "client", ev.PeerID)
	assert.Zero(t, s.PendingCount())
	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return r.PendingCount() == 0
	}, "响应确认后跟踪表应为空")
}

func TestReceiver_SendResponseErrors(t *testing.T) {
	r := NewReceiver[note, note]()
	defer r.Close()

	_, err := r.SendResponse("p", note{})
	assert.ErrorIs(t, err, types.ErrNotAttached)

	n := mem.NewNetwork()
	in, err := n.NewInputChannel("x")
	require.NoError(t, err)
	require.NoError(t, r.AttachInputChannel(in))

	_, err = r.SendResponse("unknown", note{})
	assert.ErrorIs(t, err, types.ErrNotConnected)
	assert.Zero(t, r.PendingCount())
}

// ============================================================================
// 清扫
// ============================================================================

func TestConfig_SweepInterval(t *testing.T) {
	tests := []struct {
		name     string
		ack      time.Duration
		sweep    time.Duration
		expected time.Duration
	}{
		{"默认", 11 * time.Second, 500 * time.Millisecond, 500 * time.Millisecond},
		{"短超时", 200 * time.Millisecond, 500 * time.Millisecond, 100 * time.Millisecond},
		{"未设置清扫间隔", time.Second, 0, 500 * time.Millisecond},
		{"都未设置", 0, 0, time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AckTimeout: tt.ack, SweepInterval: tt.sweep}
			assert.Equal(t, tt.expected, cfg.sweepInterval())
		})
	}
}

func TestTracker_SweepStopsWhenEmpty(t *testing.T) {
	mock := clock.NewMock()
	cfg := newConfig([]Option{WithAckTimeout(100 * time.Millisecond), WithClock(mock)})

	expired := make(chan []record, 4)
	tr := newTracker(cfg, func(recs []record) { expired <- recs })

	running := func() bool {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		return tr.running
	}

	assert.False(t, running())
	require.NoError(t, tr.add("a", "p"))
	assert.True(t, running())
	assert.Empty(t, tr.commit("a"))

	mock.Add(200 * time.Millisecond)
	recs := testutil.Receive(t, expired, testutil.DefaultTimeout)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].messageID)

	testutil.Eventually(t, testutil.DefaultTimeout, func() bool { return !running() }, "清扫应停止")

	// 再次登记时重新启动
	require.NoError(t, tr.add("b", "p"))
	assert.True(t, running())
	_, ok := tr.remove("b")
	assert.True(t, ok)
	_, ok = tr.remove("b")
	assert.False(t, ok)

	tr.close()
	assert.ErrorIs(t, tr.add("c", "p"), ErrClosed)
}
