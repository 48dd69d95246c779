package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenListTeam/nanosockets/address"
	"github.com/OpenListTeam/nanosockets/logger"
	"github.com/OpenListTeam/nanosockets/udp"
)

const sample = `
log:
  level: debug
  format: json
  output: none
sockets:
  sendBufferSize: 65536
  receiveBufferSize: 131072
  lockMode: global
resolver:
  nameserver: 127.0.0.1:5353
  timeout: 2s
metrics:
  addr: 127.0.0.1:9000
`

func TestRead(t *testing.T) {
	cfg, err := Read(strings.NewReader(sample), "yaml")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 65536, cfg.Sockets.SendBufferSize)
	assert.Equal(t, 131072, cfg.Sockets.ReceiveBufferSize)
	assert.Equal(t, "global", cfg.Sockets.LockMode)
	assert.Equal(t, "127.0.0.1:5353", cfg.Resolver.Nameserver)
	assert.Equal(t, 2*time.Second, cfg.Resolver.Timeout)
	assert.Equal(t, "127.0.0.1:9000", cfg.Metrics.Addr)
	// default survives
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	r, ok := cfg.HostResolver().(*address.DNSResolver)
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1:5353", r.Server)
	assert.Equal(t, 2*time.Second, r.Timeout)

	log, err := cfg.Logger("test")
	require.NoError(t, err)
	assert.Equal(t, logger.Nop(), log)
	assert.Len(t, cfg.HostOptions(log), 3)
}

func TestDefaultsAndEnv(t *testing.T) {
	t.Setenv("NANOSOCKETS_SOCKETS_SENDBUFFERSIZE", "4096")
	t.Setenv("NANOSOCKETS_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "explicit file must exist")
	require.Nil(t, cfg)

	path := filepath.Join(t.TempDir(), "nanosockets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sockets:\n  receiveBufferSize: 1024\n"), 0644))

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.Sockets.SendBufferSize)
	assert.Equal(t, 1024, cfg.Sockets.ReceiveBufferSize)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.Equal(t, string(udp.LockPerHandle), cfg.Sockets.LockMode)
	assert.Equal(t, 5*time.Second, cfg.Resolver.Timeout)

	_, ok := cfg.HostResolver().(*address.SystemResolver)
	assert.True(t, ok)
}

func TestWrite(t *testing.T) {
	cfg, err := Read(strings.NewReader(sample), "yaml")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf, "yaml"))
	assert.Contains(t, buf.String(), "lockMode: global")

	again, err := Read(&buf, "yaml")
	require.NoError(t, err)
	assert.Equal(t, cfg, again)

	buf.Reset()
	require.NoError(t, cfg.Write(&buf, "json"))
	assert.Contains(t, buf.String(), `"nameserver": "127.0.0.1:5353"`)
}
