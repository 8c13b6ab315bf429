package command

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-duplexmsg/internal/core/duplex/mem"
	"github.com/dep2p/go-duplexmsg/pkg/types"
	"github.com/dep2p/go-duplexmsg/tests/testutil"
)

func startReceiver(t *testing.T, process ProcessFunc, opts ...Option) (*Receiver, *mem.Network) {
	t.Helper()

	n := mem.NewNetwork()
	in, err := n.NewInputChannel(testutil.DefaultChannelID)
	require.NoError(t, err)
	t.Cleanup(in.StopListening)

	rcv, err := NewReceiver(process, opts...)
	require.NoError(t, err)
	t.Cleanup(rcv.Close)
	require.NoError(t, rcv.AttachInputChannel(in))
	return rcv, n
}

func connectProxy(t *testing.T, n *mem.Network, proxyID string) (*Proxy, chan ResponseEvent) {
	t.Helper()

	p := NewProxy()
	responses := make(chan ResponseEvent, 64)
	p.OnResponse(func(ev ResponseEvent) { responses <- ev })
	require.NoError(t, p.AttachOutputChannel(n.NewOutputChannel(testutil.DefaultChannelID, proxyID)))
	return p, responses
}

func atoi(b []byte) int {
	v, _ := strconv.Atoi(string(b))
	return v
}

// ============================================================================
// 暂停/恢复
// ============================================================================

// TestReceiver_SumWithPauseResume sum(3,4)：执行中暂停，WaitIfPause 阻塞；恢复后放行并返回 7
func TestReceiver_SumWithPauseResume(t *testing.T) {
	contexts := make(chan *Context, 1)
	proceed := make(chan struct{})
	waited := make(chan bool, 1)

	_, n := startReceiver(t, func(ctx *Context) error {
		a, err := ctx.DequeueInputData(time.Second)
		if err != nil {
			return err
		}
		b, err := ctx.DequeueInputData(time.Second)
		if err != nil {
			return err
		}
		contexts <- ctx
		<-proceed

		waited <- ctx.WaitIfPause(0)
		return ctx.Respond(types.StateCompleted, []byte(strconv.Itoa(atoi(a)+atoi(b))), "", true)
	})

	proxy, responses := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("sum", []byte("3")))
	require.NoError(t, proxy.Execute("sum", []byte("4")))

	ctx := testutil.Receive(t, contexts, testutil.DefaultTimeout)
	assert.Equal(t, "sum", ctx.CommandID())
	assert.Equal(t, "proxy", ctx.ProxyID())
	assert.Equal(t, types.RequestExecute, ctx.CurrentRequest())

	require.NoError(t, proxy.Pause("sum"))
	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return ctx.CurrentRequest() == types.RequestPause
	}, "应收到暂停请求")

	close(proceed)
	testutil.NoReceive(t, waited, 100*time.Millisecond)

	require.NoError(t, proxy.Resume("sum"))
	assert.True(t, testutil.Receive(t, waited, testutil.DefaultTimeout))

	resp := testutil.Receive(t, responses, testutil.DefaultTimeout)
	require.NoError(t, resp.Err)
	assert.Equal(t, "sum", resp.Value.CommandID)
	assert.Equal(t, types.StateCompleted, resp.Value.State)
	assert.Equal(t, "7", string(resp.Value.ReturnFragment))
	assert.True(t, resp.Value.IsLast)
}

func TestContext_WaitIfPauseTimeout(t *testing.T) {
	contexts := make(chan *Context, 1)
	result := make(chan bool, 1)
	proceed := make(chan struct{})

	_, n := startReceiver(t, func(ctx *Context) error {
		contexts <- ctx
		<-proceed
		result <- ctx.WaitIfPause(30 * time.Millisecond)
		return nil
	})

	proxy, _ := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("job", nil))
	ctx := testutil.Receive(t, contexts, testutil.DefaultTimeout)

	require.NoError(t, proxy.Pause("job"))
	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return ctx.CurrentRequest() == types.RequestPause
	}, "应收到暂停请求")
	close(proceed)

	assert.False(t, testutil.Receive(t, result, testutil.DefaultTimeout))
}

// ============================================================================
// 取消
// ============================================================================

func TestReceiver_CancelUnblocksDequeue(t *testing.T) {
	started := make(chan *Context, 1)
	dequeueErr := make(chan error, 1)

	rcv, n := startReceiver(t, func(ctx *Context) error {
		started <- ctx
		_, err := ctx.DequeueInputData(0)
		dequeueErr <- err
		return err
	})

	proxy, responses := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("job", nil))
	ctx := testutil.Receive(t, started, testutil.DefaultTimeout)

	require.NoError(t, proxy.Cancel("job"))
	assert.ErrorIs(t, testutil.Receive(t, dequeueErr, testutil.DefaultTimeout), types.ErrCanceled)

	resp := testutil.Receive(t, responses, testutil.DefaultTimeout)
	assert.Equal(t, types.StateCanceled, resp.Value.State)
	assert.True(t, ctx.IsCanceled())

	select {
	case <-ctx.Done():
	default:
		t.Fatal("Done 应已关闭")
	}

	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return len(rcv.LiveCommands()) == 0
	}, "命令项应被移除")
}

func TestReceiver_CancelUnblocksPause(t *testing.T) {
	contexts := make(chan *Context, 1)
	proceed := make(chan struct{})
	waited := make(chan bool, 1)

	_, n := startReceiver(t, func(ctx *Context) error {
		contexts <- ctx
		<-proceed
		waited <- ctx.WaitIfPause(0)
		if ctx.CurrentRequest() == types.RequestCancel {
			return ctx.RespondCanceled()
		}
		return nil
	})

	proxy, responses := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("job", nil))
	ctx := testutil.Receive(t, contexts, testutil.DefaultTimeout)

	require.NoError(t, proxy.Pause("job"))
	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return ctx.CurrentRequest() == types.RequestPause
	}, "应收到暂停请求")
	close(proceed)
	testutil.NoReceive(t, waited, 50*time.Millisecond)

	require.NoError(t, proxy.Cancel("job"))
	assert.True(t, testutil.Receive(t, waited, testutil.DefaultTimeout))
	assert.Equal(t, types.StateCanceled, testutil.Receive(t, responses, testutil.DefaultTimeout).Value.State)

	// 取消后不能再暂停
	ctx.it.pause()
	assert.Equal(t, types.RequestCancel, ctx.CurrentRequest())
}

func TestReceiver_ControlForMissingCommandIgnored(t *testing.T) {
	var calls atomic.Int32
	rcv, n := startReceiver(t, func(*Context) error {
		calls.Add(1)
		return nil
	})

	proxy, responses := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Pause("ghost"))
	require.NoError(t, proxy.Resume("ghost"))
	require.NoError(t, proxy.Cancel("ghost"))

	testutil.NoReceive(t, responses, 50*time.Millisecond)
	assert.Empty(t, rcv.LiveCommands())
	assert.Zero(t, calls.Load())
}

// ============================================================================
// 断开
// ============================================================================

// TestReceiver_ProxyDisconnectMidCommand 代理中途断开：IsProxyConnected 变 false，之后 Respond 不报错
func TestReceiver_ProxyDisconnectMidCommand(t *testing.T) {
	contexts := make(chan *Context, 1)
	proceed := make(chan struct{})
	results := make(chan error, 2)

	rcv, n := startReceiver(t, func(ctx *Context) error {
		contexts <- ctx
		<-proceed
		results <- ctx.Respond(types.StateInProgress, []byte("partial"), types.NewSequenceID(), false)
		results <- ctx.Respond(types.StateCompleted, nil, "", true)
		return nil
	})

	proxy, _ := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("job", nil))
	ctx := testutil.Receive(t, contexts, testutil.DefaultTimeout)
	assert.True(t, ctx.IsProxyConnected())

	proxy.DetachOutputChannel()
	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return !ctx.IsProxyConnected()
	}, "代理断开后应标记为未连接")

	// 未被自动取消
	assert.Equal(t, types.RequestExecute, ctx.CurrentRequest())
	assert.Len(t, rcv.LiveCommands(), 1)

	close(proceed)
	assert.NoError(t, testutil.Receive(t, results, testutil.DefaultTimeout))
	assert.NoError(t, testutil.Receive(t, results, testutil.DefaultTimeout))

	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return len(rcv.LiveCommands()) == 0
	}, "命令项应被移除")
}

func TestReceiver_DetachMarksDisconnected(t *testing.T) {
	contexts := make(chan *Context, 1)
	proceed := make(chan struct{})

	rcv, n := startReceiver(t, func(ctx *Context) error {
		contexts <- ctx
		<-proceed
		return nil
	})
	defer close(proceed)

	proxy, _ := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("job", nil))
	ctx := testutil.Receive(t, contexts, testutil.DefaultTimeout)

	require.NotNil(t, rcv.DetachInputChannel())
	assert.False(t, rcv.IsAttached())
	assert.False(t, ctx.IsProxyConnected())
	assert.NoError(t, ctx.RespondCanceled())
}

// ============================================================================
// 命令项
// ============================================================================

func TestReceiver_FragmentsAccumulatePerKey(t *testing.T) {
	type run struct {
		proxy, command string
		inputs         []string
	}
	runs := make(chan run, 4)
	release := make(chan struct{})

	rcv, n := startReceiver(t, func(ctx *Context) error {
		<-release
		r := run{proxy: ctx.ProxyID(), command: ctx.CommandID()}
		for {
			data, err := ctx.DequeueInputData(50 * time.Millisecond)
			if errors.Is(err, types.ErrTimeout) {
				break
			}
			if err != nil {
				return err
			}
			r.inputs = append(r.inputs, string(data))
		}
		runs <- r
		return nil
	})

	p1, _ := connectProxy(t, n, "p1")
	p2, _ := connectProxy(t, n, "p2")

	require.NoError(t, p1.Execute("cmd", []byte("a")))
	require.NoError(t, p1.SendInput("cmd", []byte("b")))
	require.NoError(t, p1.Execute("other", []byte("x")))
	require.NoError(t, p2.Execute("cmd", []byte("z")))
	require.NoError(t, p1.Execute("cmd", []byte("c")))

	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return len(rcv.LiveCommands()) == 3
	}, "应有三个独立命令项")
	assert.Equal(t, []LiveCommand{
		{ProxyID: "p1", CommandID: "cmd"},
		{ProxyID: "p1", CommandID: "other"},
		{ProxyID: "p2", CommandID: "cmd"},
	}, rcv.LiveCommands())

	close(release)

	got := make(map[string][]string)
	for i := 0; i < 3; i++ {
		r := testutil.Receive(t, runs, testutil.DefaultTimeout)
		got[r.proxy+"/"+r.command] = r.inputs
	}
	assert.Equal(t, map[string][]string{
		"p1/cmd":   {"a", "b", "c"},
		"p1/other": {"x"},
		"p2/cmd":   {"z"},
	}, got)
}

func TestReceiver_PendingFragments(t *testing.T) {
	contexts := make(chan *Context, 1)
	release := make(chan struct{})

	_, n := startReceiver(t, func(ctx *Context) error {
		contexts <- ctx
		<-release
		return nil
	})
	defer close(release)

	proxy, _ := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("job", []byte("1")))
	ctx := testutil.Receive(t, contexts, testutil.DefaultTimeout)

	require.NoError(t, proxy.SendInput("job", []byte("2")))
	require.NoError(t, proxy.SendInput("job", []byte("3")))
	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return ctx.NumberOfPendingFragments() == 3
	}, "应有三个待处理分片")

	data, err := ctx.DequeueInputData(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
	assert.Equal(t, 2, ctx.NumberOfPendingFragments())
}

func TestContext_DequeueTimeout(t *testing.T) {
	result := make(chan error, 1)
	_, n := startReceiver(t, func(ctx *Context) error {
		_, err := ctx.DequeueInputData(20 * time.Millisecond)
		result <- err
		return nil
	})

	proxy, _ := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("job", nil))
	assert.ErrorIs(t, testutil.Receive(t, result, testutil.DefaultTimeout), types.ErrTimeout)
}

func TestReceiver_ExecuteAfterCompletionStartsNewItem(t *testing.T) {
	var calls atomic.Int32
	rcv, n := startReceiver(t, func(ctx *Context) error {
		calls.Add(1)
		return ctx.Respond(types.StateCompleted, nil, "", true)
	})

	proxy, responses := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("job", nil))
	testutil.Receive(t, responses, testutil.DefaultTimeout)
	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return len(rcv.LiveCommands()) == 0
	}, "命令项应被移除")

	require.NoError(t, proxy.Execute("job", nil))
	testutil.Receive(t, responses, testutil.DefaultTimeout)
	assert.Equal(t, int32(2), calls.Load())
}

// ============================================================================
// 失败
// ============================================================================

func TestReceiver_RoutineErrorBecomesFailed(t *testing.T) {
	rcv, n := startReceiver(t, func(*Context) error {
		return errors.New("disk full")
	})

	proxy, responses := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("job", nil))

	resp := testutil.Receive(t, responses, testutil.DefaultTimeout)
	assert.Equal(t, types.StateFailed, resp.Value.State)
	assert.Equal(t, "disk full", resp.Value.ErrorMessage)
	assert.True(t, resp.Value.IsLast)

	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return len(rcv.LiveCommands()) == 0 && rcv.ActiveCount() == 0
	}, "命令项应被移除")
}

func TestReceiver_RoutinePanicBecomesFailed(t *testing.T) {
	_, n := startReceiver(t, func(*Context) error {
		panic("boom")
	})

	proxy, responses := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("job", nil))
	require.NoError(t, proxy.Execute("job2", nil))

	for i := 0; i < 2; i++ {
		resp := testutil.Receive(t, responses, testutil.DefaultTimeout)
		assert.Equal(t, types.StateFailed, resp.Value.State)
		assert.Contains(t, resp.Value.ErrorMessage, "boom")
	}
}

func TestReceiver_ReturnWithoutResponseSendsNothing(t *testing.T) {
	_, n := startReceiver(t, func(*Context) error { return nil })

	proxy, responses := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("job", nil))
	testutil.NoReceive(t, responses, 100*time.Millisecond)
}

// ============================================================================
// 执行策略
// ============================================================================

func TestStrategy_SingleThreadOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	var active, maxActive atomic.Int32

	rcv, n := startReceiver(t, func(ctx *Context) error {
		cur := active.Add(1)
		defer active.Add(-1)
		for {
			old := maxActive.Load()
			if cur <= old || maxActive.CompareAndSwap(old, cur) {
				break
			}
		}

		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		order = append(order, ctx.CommandID())
		mu.Unlock()
		return nil
	}, WithStrategy(SingleThread))

	proxy, _ := connectProxy(t, n, "proxy")
	var want []string
	for i := 0; i < 10; i++ {
		id := "c" + strconv.Itoa(i)
		want = append(want, id)
		require.NoError(t, proxy.Execute(id, nil))
	}

	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 10
	}, "所有命令都应执行")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, order)
	assert.Equal(t, int32(1), maxActive.Load())
	assert.Empty(t, rcv.LiveCommands())
}

func TestStrategy_MultiThreadConcurrent(t *testing.T) {
	var started sync.WaitGroup
	started.Add(2)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	done := make(chan string, 2)
	_, n := startReceiver(t, func(ctx *Context) error {
		started.Done()
		// 两个命令都开始后才能结束，串行执行会卡住
		<-allStarted
		done <- ctx.CommandID()
		return nil
	}, WithStrategy(MultiThread))

	proxy, _ := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("a", nil))
	require.NoError(t, proxy.Execute("b", nil))

	got := []string{
		testutil.Receive(t, done, testutil.DefaultTimeout),
		testutil.Receive(t, done, testutil.DefaultTimeout),
	}
	assert.ElementsMatch(t, []string{"a", "b"}, got)
}

func TestStrategy_MaxConcurrency(t *testing.T) {
	var active, maxActive atomic.Int32
	finished := make(chan struct{}, 8)

	_, n := startReceiver(t, func(ctx *Context) error {
		cur := active.Add(1)
		defer active.Add(-1)
		for {
			old := maxActive.Load()
			if cur <= old || maxActive.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		finished <- struct{}{}
		return nil
	}, WithStrategy(MultiThread), WithMaxConcurrency(2))

	proxy, _ := connectProxy(t, n, "proxy")
	for i := 0; i < 6; i++ {
		require.NoError(t, proxy.Execute("c"+strconv.Itoa(i), nil))
	}
	for i := 0; i < 6; i++ {
		testutil.Receive(t, finished, testutil.DefaultTimeout)
	}
	assert.LessOrEqual(t, maxActive.Load(), int32(2))
}

func TestStrategy_SingleThreadQueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	rcv, n := startReceiver(t, func(ctx *Context) error {
		started <- struct{}{}
		<-release
		return nil
	}, WithStrategy(SingleThread), WithQueueSize(1))
	defer close(release)

	proxy, responses := connectProxy(t, n, "proxy")
	require.NoError(t, proxy.Execute("running", nil))
	testutil.Receive(t, started, testutil.DefaultTimeout)

	require.NoError(t, proxy.Execute("queued", nil))
	require.NoError(t, proxy.Execute("rejected", nil))

	resp := testutil.Receive(t, responses, testutil.DefaultTimeout)
	assert.Equal(t, "rejected", resp.Value.CommandID)
	assert.Equal(t, types.StateFailed, resp.Value.State)
	assert.Equal(t, ErrQueueFull.Error(), resp.Value.ErrorMessage)

	assert.Equal(t, []LiveCommand{
		{ProxyID: "proxy", CommandID: "queued"},
		{ProxyID: "proxy", CommandID: "running"},
	}, rcv.LiveCommands())
}

// ============================================================================
// 参数校验
// ============================================================================

func TestNewReceiver_NilProcess(t *testing.T) {
	_, err := NewReceiver(nil)
	assert.ErrorIs(t, err, ErrNilProcess)

	_, err = NewReliableReceiver(nil)
	assert.ErrorIs(t, err, ErrNilProcess)
}

func TestProxy_Errors(t *testing.T) {
	p := NewProxy()
	assert.ErrorIs(t, p.Execute("x", nil), types.ErrNotAttached)

	_, n := startReceiver(t, func(*Context) error { return nil })
	require.NoError(t, p.AttachOutputChannel(n.NewOutputChannel(testutil.DefaultChannelID, "")))
	assert.ErrorIs(t, p.Execute("", nil), ErrEmptyCommandID)
	assert.ErrorIs(t, p.Pause(""), ErrEmptyCommandID)

	id, err := p.ExecuteNew([]byte("in"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"single", SingleThread, false},
		{"SingleThread", SingleThread, false},
		{"multi", MultiThread, false},
		{"", MultiThread, false},
		{"pool", MultiThread, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Strategy {
	t.Helper()
	st, err := ParseStrategy(s)
	require.NoError(t, err)
	return st
}
