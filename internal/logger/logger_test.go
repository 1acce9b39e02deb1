package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testLogConfig struct {
	level, output, file string
}

func (c testLogConfig) GetLevel() string  { return c.level }
func (c testLogConfig) GetOutput() string { return c.output }
func (c testLogConfig) GetFile() string   { return c.file }

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLogLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLogLevel("warning"))
	assert.Equal(t, ERROR, ParseLogLevel("error"))
	assert.Equal(t, FATAL, ParseLogLevel("fatal"))
	assert.Equal(t, INFO, ParseLogLevel(""))
	assert.Equal(t, INFO, ParseLogLevel("verbose"))
}

func TestNewWithFileRotation_WritesJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")

	l, err := NewWithFileRotation(WARN, file)
	require.NoError(t, err)

	l.Info("dropped %d", 1)
	l.Warn("approval %s is overdue", "a-1")
	l.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "approval a-1 is overdue", entry["message"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewWithLumberjackConfig_RequiresFilename(t *testing.T) {
	_, err := NewWithLumberjackConfig(INFO, LumberjackConfig{})
	assert.Error(t, err)
}

func TestInit_FileOutput(t *testing.T) {
	previous := defaultLogger
	t.Cleanup(func() { defaultLogger = previous })

	file := filepath.Join(t.TempDir(), "civicops.log")
	require.NoError(t, Init(testLogConfig{level: "debug", output: "file", file: file}))

	Debug("schedule %s saved", "schedule-p-1")
	Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "schedule schedule-p-1 saved")
}

func TestInit_FileOutputWithoutPath(t *testing.T) {
	previous := defaultLogger
	t.Cleanup(func() { defaultLogger = previous })

	assert.Error(t, Init(testLogConfig{output: "file"}))
}

func TestWith_AddsFields(t *testing.T) {
	previous := defaultLogger
	t.Cleanup(func() { defaultLogger = previous })

	core, logs := observer.New(zapcore.DebugLevel)
	defaultLogger = &Logger{zapLogger: zap.New(core, zap.AddCallerSkip(2), zap.AddCaller())}

	With(zap.String("path", "/api/v1/approvals"), zap.Int("status", 403)).Warn("%s denied", "viewer")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "viewer denied", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "/api/v1/approvals", entries[0].ContextMap()["path"])
	assert.EqualValues(t, 403, entries[0].ContextMap()["status"])
	assert.Contains(t, entries[0].Caller.File, "logger_test.go")
}

func TestNewNop_DiscardsEverything(t *testing.T) {
	l := NewNop()
	l.With(zap.String("k", "v")).Error("ignored %d", 1)
	l.Sync()
}
