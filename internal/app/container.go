// Package app wires configuration into the running components shared by the HTTP
// server and the command-line tool.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/meddesert/internal/auth"
	"github.com/agenthands/meddesert/internal/config"
	"github.com/agenthands/meddesert/internal/core/agents"
	"github.com/agenthands/meddesert/internal/core/graph"
	"github.com/agenthands/meddesert/internal/core/workflow"
	"github.com/agenthands/meddesert/internal/driver"
	"github.com/agenthands/meddesert/internal/llm"
	"github.com/agenthands/meddesert/internal/seed"
	"github.com/agenthands/meddesert/internal/server"
	"github.com/agenthands/meddesert/internal/store"
)

type Container struct {
	Config      *config.Config
	Logger      *logrus.Logger
	Coordinator *workflow.Coordinator
	Sessions    *auth.Sessions
	Preferences *store.Preferences
	Audit       store.AuditStore
	KV          store.KVStore
	Graph       *graph.ReportGraph

	graphDriver driver.GraphDriver
}

// Build creates every component from cfg. Memgraph is optional: when it is configured
// but unreachable the container runs without the report graph. Redis and SQLite fall
// back to in-memory stores only when they are not configured.
func Build(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	return BuildWithClient(ctx, cfg, logger, nil)
}

// BuildWithClient is Build with a preconstructed model client; nil uses the configured provider.
func BuildWithClient(ctx context.Context, cfg *config.Config, logger *logrus.Logger, client llm.LLMClient) (*Container, error) {
	data, err := seed.Load()
	if err != nil {
		return nil, err
	}

	if client == nil {
		client, err = llm.NewClient(ctx, cfg.LLM, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
		}
	}

	a, err := agents.New(client, cfg.Prompts, agents.Models{
		Default:    cfg.LLM.Model,
		Strategist: cfg.LLM.StrategistModel,
	}, cfg.Workflow.Region, logger)
	if err != nil {
		return nil, err
	}

	state := workflow.NewState(data.Hospitals, data.Deserts)
	coord := workflow.NewCoordinator(a, state, cfg.Workflow.DiscoveryTopic, logger)
	coord.Timeout = cfg.Workflow.Timeout.Duration

	c := &Container{
		Config:      cfg,
		Logger:      logger,
		Coordinator: coord,
	}

	if cfg.Memgraph.URI != "" {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger)
		if err != nil {
			logger.WithError(err).Warn("Memgraph unavailable, running without the report graph")
		} else {
			c.graphDriver = d
			c.Graph = graph.NewReportGraph(d, logger)
			if err := c.Graph.BuildIndices(ctx); err != nil {
				logger.WithError(err).Warn("Failed to build graph indices")
			}
			coord.Sink = c.Graph
		}
	}

	if cfg.Redis.URL != "" {
		kv, err := store.NewRedisKVStore(ctx, cfg.Redis.URL)
		if err != nil {
			c.Close(ctx)
			return nil, err
		}
		c.KV = kv
	} else {
		logger.Info("No Redis URL configured, sessions are kept in memory")
		c.KV = store.NewMemoryKVStore()
	}

	if cfg.SQLite.Path != "" {
		audit, err := store.OpenSQLiteAudit(ctx, cfg.SQLite.Path, data.Audit)
		if err != nil {
			c.Close(ctx)
			return nil, err
		}
		c.Audit = audit
	} else {
		c.Audit = store.NewMemoryAuditStore(data.Audit)
	}

	c.Sessions = auth.NewSessions(c.KV, auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL.Duration))
	c.Preferences = &store.Preferences{KV: c.KV}
	return c, nil
}

func (c *Container) ServerDeps() server.Deps {
	return server.Deps{
		Coordinator: c.Coordinator,
		Sessions:    c.Sessions,
		Preferences: c.Preferences,
		Audit:       c.Audit,
		Graph:       c.Graph,
		Logger:      c.Logger,
	}
}

// Close releases every store that was opened. Errors are logged.
func (c *Container) Close(ctx context.Context) {
	if c.graphDriver != nil {
		if err := c.graphDriver.Close(ctx); err != nil {
			c.Logger.WithError(err).Warn("Failed to close Memgraph driver")
		}
	}
	if c.KV != nil {
		if err := c.KV.Close(); err != nil {
			c.Logger.WithError(err).Warn("Failed to close session store")
		}
	}
	if c.Audit != nil {
		if err := c.Audit.Close(); err != nil {
			c.Logger.WithError(err).Warn("Failed to close audit store")
		}
	}
}
