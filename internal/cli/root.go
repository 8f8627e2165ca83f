// Package cli implements the meddesert command-line tool.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agenthands/meddesert/internal/app"
	"github.com/agenthands/meddesert/internal/config"
	"github.com/agenthands/meddesert/internal/llm"
	"github.com/agenthands/meddesert/internal/logging"
)

type Options struct {
	ConfigPath string
	// Client replaces the configured model provider, for tests.
	Client llm.LLMClient
	// LogOutput receives log lines; nil means stdout.
	LogOutput io.Writer
}

// env builds the container on first use so that --help works without credentials.
type env struct {
	opts      Options
	verbose   bool
	container *app.Container
}

func (e *env) load(ctx context.Context) (*app.Container, error) {
	if e.container != nil {
		return e.container, nil
	}

	path := e.opts.ConfigPath
	if path == "" {
		path = "config/config.toml"
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	var logger *logrus.Logger
	if e.opts.LogOutput != nil {
		logger = logging.NewWithOutput(cfg.Log, e.opts.LogOutput)
	} else {
		logger = logging.New(cfg.Log)
	}
	if e.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	c, err := app.BuildWithClient(ctx, cfg, logger, e.opts.Client)
	if err != nil {
		return nil, err
	}
	e.container = c
	return c, nil
}

func (e *env) close(ctx context.Context) {
	if e.container != nil {
		e.container.Close(ctx)
		e.container = nil
	}
}

// NewRootCmd wires the cobra command tree.
func NewRootCmd(opts Options) *cobra.Command {
	e := &env{opts: opts}

	root := &cobra.Command{
		Use:   "meddesert",
		Short: "Medical desert planner",
		Long:  "Discovers facility reports, runs the agent pipeline and prints regional resource plans.",
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.close(context.Background())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&e.opts.ConfigPath, "config", "c", opts.ConfigPath, "Path to the TOML config file")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newServeCommand(e),
		newRunCommand(e),
		newInterveneCommand(e),
		newQueryCommand(e),
		newChatCommand(e),
		newReportsCommand(e),
		newAuditCommand(e),
	)
	return root
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
