package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luocfprime/labtasker/internal/config"
)

func TestRunConfigWrite_ThenShow(t *testing.T) {
	dir := t.TempDir()

	var writeBuf bytes.Buffer
	err := runConfigWrite(dir, config.ClientConfig{
		APIBaseURL:        "http://localhost:9321",
		QueueName:         "my-queue",
		Password:          "secret",
		HeartbeatInterval: 15 * time.Second,
	}, &writeBuf)
	require.NoError(t, err)
	assert.Contains(t, writeBuf.String(), "client.env")

	raw, err := os.ReadFile(filepath.Join(dir, "client.env"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `queue_name = "my-queue"`)

	var showBuf bytes.Buffer
	require.NoError(t, runConfigShow(dir, &showBuf))
	assert.Contains(t, showBuf.String(), "my-queue")
}
