package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBeforeInitIsNoop(t *testing.T) {
	mu.Lock()
	saved := globalLogger
	globalLogger = nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		globalLogger = saved
		mu.Unlock()
	})

	assert.NotPanics(t, func() {
		Info("nobody listening", String("k", "v"))
		Sync()
	})
}

func TestConsoleLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitLogger(Config{Level: WarnLevel, Console: &buf}))

	Info("hidden")
	Warn("shown", Int("status", -1))
	Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")

	var entry map[string]any
	line := strings.TrimSpace(out)
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.EqualValues(t, -1, entry["status"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestFileOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "smpctl.log")

	var console bytes.Buffer
	require.NoError(t, InitLogger(Config{
		Level:      DebugLevel,
		OutputPath: path,
		MaxSize:    1,
		Console:    &console,
	}))

	Debug("to file", String("command", "getdrivers"))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "getdrivers")
	assert.Contains(t, console.String(), "getdrivers")
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitLogger(Config{Level: "loud", Console: &buf}))

	Debug("quiet")
	Info("audible")
	Sync()

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "audible")
}
