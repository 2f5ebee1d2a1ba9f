package log

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	defer Sync()
	Info("Testing")
	Debug("Testing")
	Warn("Testing")
	Error("Testing")
	defer func() {
		if err := recover(); err != nil {
			Debug("logPanic recover")
		}
	}()
	Panic("Testing")
}

func TestReplaceGlobals(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := ReplaceGlobals(zap.New(core))
	defer restore()

	Info("opened writer", String("path", "node/a-part0.parquet"), Int("partition", 0))
	Debug("hidden")

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "opened writer", entries[0].Message)
	assert.Equal(t, "node/a-part0.parquet", entries[0].ContextMap()["path"])
}

func TestSetLevel(t *testing.T) {
	assert.NoError(t, SetLevel("debug"))
	assert.Error(t, SetLevel("loud"))
	assert.NoError(t, SetLevel("info"))
}

func TestCallerOfChildLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := ReplaceGlobals(zap.New(core, zap.AddCaller()), AddCallerSkip(1))
	defer restore()

	Info("from helper")
	With(String("run", "r1")).Info("from child")

	entries := logs.All()
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "log_test.go", filepath.Base(e.Caller.File), e.Message)
	}
	assert.Equal(t, "r1", entries[1].ContextMap()["run"])
}
