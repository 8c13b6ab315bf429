package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

// ============================================================================
// Fx 模块测试
// ============================================================================

// TestModule_DisabledByDefault 测试默认返回空实现
func TestModule_DisabledByDefault(t *testing.T) {
	var reporter Reporter

	app := fxtest.New(t,
		Module,
		fx.Populate(&reporter),
	)
	defer app.RequireStart().RequireStop()

	require.NotNil(t, reporter)
	reporter.MessageSent("typed")
	assert.Equal(t, Stats{}, reporter.Snapshot())
}

// TestModule_Enabled 测试启用后注册到给定 Registerer
func TestModule_Enabled(t *testing.T) {
	reg := prometheus.NewRegistry()
	var reporter Reporter

	app := fxtest.New(t,
		Module,
		fx.Supply(&Config{Enable: true, Namespace: "test"}),
		fx.Provide(func() prometheus.Registerer { return reg }),
		fx.Populate(&reporter),
	)
	app.RequireStart()

	reporter.MessageSent("typed")
	reporter.MessageReceived("typed")
	assert.Equal(t, int64(1), reporter.Snapshot().MessagesSent)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	app.RequireStop()
	families, err = reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}

// ============================================================================
// Collector 测试
// ============================================================================

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(Config{Enable: true, Namespace: "t"}, reg)
	require.NoError(t, err)

	c.MessageSent("reliable")
	c.MessageSent("reliable")
	c.MessageReceived("command")
	c.SendFailed("reliable")
	c.DeliveryResolved(true)
	c.DeliveryResolved(false)
	c.SetTracked(3)
	c.CommandStarted()
	c.CommandStarted()
	c.CommandFinished("Completed", 10*time.Millisecond)

	assert.Equal(t, Stats{
		MessagesSent:     2,
		MessagesReceived: 1,
		SendFailures:     1,
		Delivered:        1,
		NotDelivered:     1,
		Tracked:          3,
		CommandsStarted:  2,
		CommandsActive:   1,
	}, c.Snapshot())

	assert.Equal(t, 2.0, testutil.ToFloat64(c.messages.WithLabelValues("reliable", "out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.deliveries.WithLabelValues("not_delivered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.activeGauge))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commands.WithLabelValues("Completed")))
}

func TestCollector_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(Config{Namespace: "t"}, reg)
	require.NoError(t, err)

	// 重复注册同一收集器不报错
	require.NoError(t, c.register(reg))

	// 同名不同实例冲突
	_, err = NewCollector(Config{Namespace: "t"}, reg)
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, Nop(), OrNop(nil))

	c, err := NewCollector(DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Same(t, c, OrNop(c))
}
