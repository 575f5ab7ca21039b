package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadClient_Defaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := LoadClient(root)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9321", cfg.APIBaseURL)
	assert.Equal(t, "", cfg.QueueName)
	assert.Equal(t, 10*time.Second, cfg.HeartbeatInterval)
}

func TestLoadClient_FromFile(t *testing.T) {
	root := t.TempDir()
	content := `
api_base_url = "http://example.com:9321"
queue_name = "my_queue"
password = "secret"
heartbeat_interval = "5s"
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "client.env"), []byte(content), 0o600))

	cfg, err := LoadClient(root)
	require.NoError(t, err)

	assert.Equal(t, "http://example.com:9321", cfg.APIBaseURL)
	assert.Equal(t, "my_queue", cfg.QueueName)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
}
