package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-duplexmsg/pkg/lib/log"
)

func TestParseLevels(t *testing.T) {
	cfg := DefaultConfig()
	ParseLevels(cfg, "protocol/reliable=debug, protocol/command=warn,error,bogus=nope")

	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelFor("protocol/reliable"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelFor("protocol/command"))
	assert.Equal(t, slog.LevelError, cfg.LevelFor("protocol/typed"))
	assert.NotContains(t, cfg.ComponentLevels, "bogus")
	assert.Equal(t, slog.LevelDebug, cfg.MinLevel())
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "protocol/typed=debug,warn")
	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvAddSource, "1")

	cfg := ConfigFromEnv()
	assert.Equal(t, slog.LevelWarn, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelFor("protocol/typed"))
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.AddSource)
}

func TestInstall_ComponentLevels(t *testing.T) {
	prev := slog.Default()
	defer log.SetDefault(prev)

	cfg := DefaultConfig()
	ParseLevels(cfg, "noisy=error,debug")

	buf := &bytes.Buffer{}
	Install(buf, cfg)

	log.Logger("quiet").Debug("visible message", "key", "value")
	log.Logger("noisy").Warn("hidden message")

	out := buf.String()
	require.Contains(t, out, "visible message")
	assert.Contains(t, out, "key=value")
	assert.Contains(t, out, "component=quiet")
	assert.NotContains(t, out, "hidden message")
}
