package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
scylla:
  hosts: ["127.0.0.1"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "scylla", cfg.Sink.Backend)
	assert.Equal(t, 100, cfg.Sink.BatchSize)
	assert.Equal(t, "memory", cfg.Sink.Queue)
	assert.Equal(t, "logs", cfg.Scylla.Keyspace)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logger.LogLevel)
}

func TestLoad_EnvOverridesNestedKeys(t *testing.T) {
	path := writeConfig(t, `
scylla:
  hosts: ["127.0.0.1"]
`)

	t.Setenv("TABLESINK_SINK_BATCH_SIZE", "25")
	t.Setenv("TABLESINK_SERVER_PORT", "9090")
	t.Setenv("TABLESINK_SCYLLA_KEYSPACE", "auditlogs")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Sink.BatchSize)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "auditlogs", cfg.Scylla.Keyspace)
}

func TestLoad_MissingCredentialIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"scylla without hosts", `
sink:
  backend: scylla
`},
		{"elastic without addresses", `
sink:
  backend: elastic
`},
		{"mongo without host", `
sink:
  backend: mongo
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNoCredential)
		})
	}
}

func TestLoad_UnknownBackendRejected(t *testing.T) {
	_, err := Load(writeConfig(t, `
sink:
  backend: carrierpigeon
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_RedisQueueNeedsAddr(t *testing.T) {
	_, err := Load(writeConfig(t, `
sink:
  queue: redis
scylla:
  hosts: ["127.0.0.1"]
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
