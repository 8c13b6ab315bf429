package command

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-duplexmsg/internal/core/duplex/mem"
	"github.com/dep2p/go-duplexmsg/internal/core/metrics"
	"github.com/dep2p/go-duplexmsg/internal/protocol/reliable"
	"github.com/dep2p/go-duplexmsg/internal/protocol/typed"
	"github.com/dep2p/go-duplexmsg/pkg/types"
	"github.com/dep2p/go-duplexmsg/tests/testutil"
)

// ============================================================================
// 可靠变体
// ============================================================================

func TestReliable_RequestAndResponseDelivered(t *testing.T) {
	n := mem.NewNetwork()
	in, err := n.NewInputChannel(testutil.DefaultChannelID)
	require.NoError(t, err)
	defer in.StopListening()

	rcv, err := NewReliableReceiver(func(ctx *Context) error {
		data, err := ctx.DequeueInputData(time.Second)
		if err != nil {
			return err
		}
		return ctx.Respond(types.StateCompleted, append(data, '!'), "", true)
	}, WithReliableOptions(reliable.WithAckTimeout(time.Second)))
	require.NoError(t, err)
	defer rcv.Close()

	rcvDelivered := make(chan types.DeliveryEvent, 4)
	rcv.OnDelivered(func(ev types.DeliveryEvent) { rcvDelivered <- ev })
	require.NoError(t, rcv.AttachInputChannel(in))

	proxy := NewReliableProxy(WithReliableOptions(reliable.WithAckTimeout(time.Second)))
	defer proxy.Close()

	delivered := make(chan types.DeliveryEvent, 4)
	notDelivered := make(chan types.DeliveryEvent, 4)
	responses := make(chan ResponseEvent, 4)
	proxy.OnDelivered(func(ev types.DeliveryEvent) { delivered <- ev })
	proxy.OnNotDelivered(func(ev types.DeliveryEvent) { notDelivered <- ev })
	proxy.OnResponse(func(ev ResponseEvent) { responses <- ev })
	require.NoError(t, proxy.AttachOutputChannel(n.NewOutputChannel(testutil.DefaultChannelID, "proxy")))

	commandID, messageID, err := proxy.ExecuteNew([]byte("hi"))
	require.NoError(t, err)
	assert.NotEmpty(t, commandID)
	assert.NotEmpty(t, messageID)

	ev := testutil.Receive(t, delivered, testutil.DefaultTimeout)
	assert.Equal(t, messageID, ev.MessageID)

	resp := testutil.Receive(t, responses, testutil.DefaultTimeout)
	assert.Equal(t, commandID, resp.Value.CommandID)
	assert.Equal(t, "hi!", string(resp.Value.ReturnFragment))

	ack := testutil.Receive(t, rcvDelivered, testutil.DefaultTimeout)
	assert.Equal(t, "proxy", ack.PeerID)

	testutil.NoReceive(t, notDelivered, 50*time.Millisecond)
	assert.Zero(t, proxy.PendingCount())
	assert.Zero(t, rcv.PendingCount())
}

// TestReliable_ControlRequestsTrackedIndependently 控制请求的投递与命令状态无关
func TestReliable_ControlRequestsTrackedIndependently(t *testing.T) {
	n := mem.NewNetwork()
	in, err := n.NewInputChannel(testutil.DefaultChannelID)
	require.NoError(t, err)
	defer in.StopListening()

	rcv, err := NewReliableReceiver(func(*Context) error { return nil })
	require.NoError(t, err)
	defer rcv.Close()
	require.NoError(t, rcv.AttachInputChannel(in))

	proxy := NewReliableProxy()
	defer proxy.Close()

	delivered := make(chan string, 4)
	proxy.OnDelivered(func(ev types.DeliveryEvent) { delivered <- ev.MessageID })
	require.NoError(t, proxy.AttachOutputChannel(n.NewOutputChannel(testutil.DefaultChannelID, "")))

	// 命令不存在，控制请求仍被确认
	pauseID, err := proxy.Pause("ghost")
	require.NoError(t, err)
	cancelID, err := proxy.Cancel("ghost")
	require.NoError(t, err)

	got := []string{
		testutil.Receive(t, delivered, testutil.DefaultTimeout),
		testutil.Receive(t, delivered, testutil.DefaultTimeout),
	}
	assert.ElementsMatch(t, []string{pauseID, cancelID}, got)
}

func TestReliable_UnackedRequestNotDelivered(t *testing.T) {
	n := mem.NewNetwork()
	in, err := n.NewInputChannel(testutil.DefaultChannelID)
	require.NoError(t, err)
	defer in.StopListening()

	proxy := NewReliableProxy(WithReliableOptions(
		reliable.WithAckTimeout(40*time.Millisecond),
		reliable.WithSweepInterval(10*time.Millisecond),
	))
	defer proxy.Close()

	notDelivered := make(chan types.DeliveryEvent, 1)
	proxy.OnNotDelivered(func(ev types.DeliveryEvent) { notDelivered <- ev })
	require.NoError(t, proxy.AttachOutputChannel(n.NewOutputChannel(testutil.DefaultChannelID, "")))

	id, err := proxy.Execute("job", nil)
	require.NoError(t, err)
	assert.Equal(t, id, testutil.Receive(t, notDelivered, testutil.DefaultTimeout).MessageID)
	assert.Zero(t, proxy.PendingCount())
}

func TestReliable_EmptyCommandID(t *testing.T) {
	proxy := NewReliableProxy()
	defer proxy.Close()

	_, err := proxy.Execute("", nil)
	assert.ErrorIs(t, err, ErrEmptyCommandID)
	_, err = proxy.Resume("")
	assert.ErrorIs(t, err, ErrEmptyCommandID)
}

// ============================================================================
// 指标
// ============================================================================

func TestReceiver_ReportsCommandMetrics(t *testing.T) {
	col, err := metrics.NewCollector(metrics.DefaultConfig(), prometheus.NewRegistry())
	require.NoError(t, err)

	rcv, n := startReceiver(t, func(ctx *Context) error {
		return ctx.Respond(types.StateCompleted, nil, "", true)
	}, WithReporter(col))

	proxy, responses := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("a", nil))
	require.NoError(t, proxy.Execute("b", nil))
	testutil.Receive(t, responses, testutil.DefaultTimeout)
	testutil.Receive(t, responses, testutil.DefaultTimeout)

	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return rcv.ActiveCount() == 0 && col.Snapshot().CommandsActive == 0
	}, "命令应全部结束")

	stats := col.Snapshot()
	assert.Equal(t, int64(2), stats.CommandsStarted)
	assert.GreaterOrEqual(t, stats.MessagesReceived, int64(2))
	assert.GreaterOrEqual(t, stats.MessagesSent, int64(2))
}

// ============================================================================
// Fx 模块测试
// ============================================================================

func TestModule_ProvidesFactory(t *testing.T) {
	var f *Factory

	app := fxtest.New(t,
		typed.Module(),
		reliable.Module(),
		Module(),
		fx.Supply(&Config{Strategy: SingleThread, QueueSize: 4}),
		fx.Populate(&f),
	)
	defer app.RequireStart().RequireStop()
	require.NotNil(t, f)

	cfg := newConfig(f.Options())
	assert.Equal(t, SingleThread, cfg.Strategy)
	assert.Equal(t, 4, cfg.QueueSize)

	n := mem.NewNetwork()
	in, err := n.NewInputChannel(testutil.DefaultChannelID)
	require.NoError(t, err)
	defer in.StopListening()

	rcv, err := f.NewReceiver(func(ctx *Context) error {
		return ctx.Respond(types.StateCompleted, []byte(ctx.CommandID()), "", true)
	})
	require.NoError(t, err)
	defer rcv.Close()
	require.NoError(t, rcv.AttachInputChannel(in))

	proxy := f.NewProxy()
	responses := make(chan ResponseEvent, 1)
	proxy.OnResponse(func(ev ResponseEvent) { responses <- ev })
	require.NoError(t, proxy.AttachOutputChannel(n.NewOutputChannel(testutil.DefaultChannelID, "")))

	require.NoError(t, proxy.Execute("via-fx", nil))
	assert.Equal(t, "via-fx", string(testutil.Receive(t, responses, testutil.DefaultTimeout).Value.ReturnFragment))
}
