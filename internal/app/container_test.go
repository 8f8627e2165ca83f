package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/meddesert/internal/config"
	"github.com/agenthands/meddesert/internal/llm"
	"github.com/agenthands/meddesert/internal/store"
)

func TestBuildInMemory(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.Default()

	c, err := BuildWithClient(context.Background(), cfg, logger, llm.NewMockLLMClient())
	require.NoError(t, err)
	defer c.Close(context.Background())

	assert.Nil(t, c.Graph)
	assert.IsType(t, &store.MemoryKVStore{}, c.KV)
	assert.IsType(t, &store.MemoryAuditStore{}, c.Audit)
	assert.Len(t, c.Coordinator.State.Reports(), 6)
	assert.Equal(t, cfg.Workflow.DiscoveryTopic, c.Coordinator.Topic)

	deps := c.ServerDeps()
	assert.Same(t, c.Coordinator, deps.Coordinator)
}

func TestBuildWithSQLiteAudit(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "audit.db")

	c, err := BuildWithClient(context.Background(), cfg, logger, llm.NewMockLLMClient())
	require.NoError(t, err)
	defer c.Close(context.Background())

	require.IsType(t, &store.SQLiteAuditStore{}, c.Audit)
	logs, err := c.Audit.List(context.Background(), "all")
	require.NoError(t, err)
	assert.Len(t, logs, 6)
}

func TestBuildRejectsBadRedisURL(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := config.Default()
	cfg.Redis.URL = "not-a-url"

	_, err := BuildWithClient(context.Background(), cfg, logger, llm.NewMockLLMClient())
	assert.Error(t, err)
}
