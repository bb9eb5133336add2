// Filename: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kfenwick/purrsuit/internal/config"
)

// syncBuffer adapts bytes.Buffer to zapcore.WriteSyncer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Sync() error { return nil }

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewLoggerJSONFormat(t *testing.T) {
	t.Parallel()

	buf := &syncBuffer{}
	logger := NewLogger(config.LoggerConfig{
		Level:       "debug",
		Format:      "json",
		ServiceName: "purrsuit-test",
	}, buf)

	logger.Info("tap dispatched", zap.Int("x", 540), zap.Int("y", 1700))
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "tap dispatched", entry["msg"])
	assert.Equal(t, "purrsuit-test", entry["logger"])
	assert.Equal(t, float64(540), entry["x"])
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	t.Parallel()

	buf := &syncBuffer{}
	logger := NewLogger(config.LoggerConfig{Level: "warn", Format: "json"}, buf)

	logger.Debug("hidden")
	logger.Info("also hidden")
	logger.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestNewLoggerFallsBackToInfoOnBadLevel(t *testing.T) {
	t.Parallel()

	buf := &syncBuffer{}
	logger := NewLogger(config.LoggerConfig{Level: "chatty", Format: "json"}, buf)

	logger.Debug("below info")
	logger.Info("at info")

	out := buf.String()
	assert.NotContains(t, out, "below info")
	assert.Contains(t, out, "at info")
}

func TestNewLoggerConsoleFormatColorizesLevel(t *testing.T) {
	t.Parallel()

	buf := &syncBuffer{}
	logger := NewLogger(config.LoggerConfig{
		Level:  "info",
		Format: "console",
		Colors: config.ColorConfig{Info: "green"},
	}, buf)

	logger.Info("hello")
	out := buf.String()
	assert.Contains(t, out, colorGreen+"INFO"+colorReset)
	assert.Contains(t, out, "hello")
}

func TestSyncToleratesNil(t *testing.T) {
	t.Parallel()
	Sync(nil)
}
