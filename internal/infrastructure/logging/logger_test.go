package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	logger, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, logger.Logger)

	_, err = New(Config{Level: "loud", OutputPaths: []string{"stdout"}})
	assert.Error(t, err)
}

func TestForSessionFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := Wrap(zap.New(core))

	logger.ForSession("default", "WEBJS", false).Info("started")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "session", entry.LoggerName)
	fields := entry.ContextMap()
	assert.Equal(t, "default", fields["session"])
	assert.Equal(t, "WEBJS", fields["engine"])
}

func TestForSessionDebugLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := Wrap(zap.New(core))

	logger.ForSession("default", "WEBJS", false).Debug("hidden")
	assert.Equal(t, 0, logs.Len())

	debug := logger.ForSession("default", "WEBJS", true)
	debug.Debug("visible")
	debug.With(zap.String("frame", "qr")).Debug("nested")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "visible", logs.All()[0].Message)
	assert.Equal(t, "qr", logs.All()[1].ContextMap()["frame"])
}

func TestWrapNil(t *testing.T) {
	logger := Wrap(nil)
	require.NotNil(t, logger)
	logger.Info("discarded")
}
