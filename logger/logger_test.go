package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(NameOption("udp"), OutputOption(&buf), LevelOption(InfoLevel))

	log.WithFields(map[string]any{"handle": 7}).Infof("created %s", "socket")
	log.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "created socket", entry["msg"])
	assert.Equal(t, "udp", entry["logger"])
	assert.Equal(t, float64(7), entry["handle"])
	assert.Equal(t, "info", entry["level"])

	assert.Equal(t, InfoLevel, log.GetLevel())
	assert.False(t, log.IsLevelEnabled(DebugLevel))
	assert.False(t, log.IsLevelEnabled("bogus"))
}

func TestLoggerTextWithCaller(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(OutputOption(&buf), FormatOption(TextFormat), LevelOption(DebugLevel))

	log.Debug("poll timeout")
	assert.Contains(t, buf.String(), "poll timeout")
	assert.Contains(t, buf.String(), "logger/logger_test.go:")
}

func TestNop(t *testing.T) {
	log := Nop()
	log.WithFields(map[string]any{"a": 1}).Error("nothing")
	assert.False(t, log.IsLevelEnabled(ErrorLevel))
}

func TestOpenOutput(t *testing.T) {
	w, err := OpenOutput("", nil)
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, w)

	w, err = OpenOutput("none", nil)
	require.NoError(t, err)
	assert.Nil(t, w)

	path := filepath.Join(t.TempDir(), "logs", "a.log")
	w, err = OpenOutput(path, nil)
	require.NoError(t, err)
	f := w.(*os.File)
	_, err = f.WriteString("x\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	w, err = OpenOutput(path, &Rotation{MaxSize: 1})
	require.NoError(t, err)
	lj, ok := w.(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, path, lj.Filename)
}
