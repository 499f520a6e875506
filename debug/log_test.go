package debug

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogTagsCategory(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	UseLogger(zap.New(core))
	defer Disable()

	Log("midi", "port %s opened", "EC4")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "port EC4 opened", entries[0].Message)
	assert.Equal(t, "midi", entries[0].ContextMap()["category"])
}

func TestLogEvery(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	UseLogger(zap.New(core))
	defer Disable()

	for i := 0; i < 10; i++ {
		LogEvery(4, "clock", "tick %d", i)
	}

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "tick 3 (every 4, count=4)", logs.All()[0].Message)
}

func TestLogSkipsWhenDebugDisabled(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	UseLogger(zap.New(core))
	defer Disable()

	Log("midi", "hidden")

	assert.Zero(t, logs.Len())
}

func TestEnableWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	require.NoError(t, Enable(Options{Level: "debug", File: path}))

	Log("surface", "window moved to %d", 4)
	L().Info("hello")
	Disable()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "logging started")
	assert.Contains(t, string(data), "window moved to 4")
	assert.Contains(t, string(data), "hello")
}

func TestLevels(t *testing.T) {
	assert.Error(t, Enable(Options{Level: "loud"}))
	assert.Error(t, SetLevel("loud"))

	require.NoError(t, SetLevel("warn"))
	assert.Equal(t, zap.WarnLevel, level.Level())
	require.NoError(t, SetLevel("info"))
}

func TestDisabledLoggerIsNop(t *testing.T) {
	Disable()
	assert.NotPanics(t, func() {
		Log("x", "y")
		Named("surface").Info("dropped")
	})
}
