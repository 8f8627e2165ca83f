package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/agenthands/meddesert/internal/core/catalog"
	"github.com/agenthands/meddesert/internal/core/geo"
	"github.com/agenthands/meddesert/internal/core/model"
	"github.com/agenthands/meddesert/internal/core/workflow"
	"github.com/agenthands/meddesert/internal/markdown"
	"github.com/agenthands/meddesert/internal/server"
)

type renderOptions struct {
	style string
	width int
	raw   bool
}

func (r *renderOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.style, "style", "dark", "Terminal style (dark, light, notty)")
	cmd.Flags().IntVar(&r.width, "width", 100, "Wrap width, 0 to disable")
	cmd.Flags().BoolVar(&r.raw, "raw", false, "Print markdown without terminal styling")
}

func (r *renderOptions) print(w io.Writer, content string) error {
	if r.raw {
		printf(w, "%s\n", content)
		return nil
	}
	out, err := markdown.Terminal(content, r.style, r.width)
	if err != nil {
		return err
	}
	printf(w, "%s", out)
	return nil
}

func newServeCommand(e *env) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			if port == "" {
				port = c.Config.Server.Port
			}
			gin.SetMode(c.Config.Server.Mode)
			srv := server.NewServer(c.ServerDeps())
			return server.ListenAndServe(cmd.Context(), srv.SetupRouter(), port, c.Logger)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (default from config)")
	return cmd
}

func newRunCommand(e *env) *cobra.Command {
	var (
		render renderOptions
		topic  string
		near   string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run discovery, extraction, verification, forecasting and synthesis",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			if topic != "" {
				c.Coordinator.Topic = topic
			}
			if near != "" {
				loc, err := parseLatLng(near)
				if err != nil {
					return err
				}
				c.Coordinator.State.SetLocation(&loc)
			}

			runErr := c.Coordinator.RunAgentic(cmd.Context())
			snap := c.Coordinator.State.Snapshot()
			printSteps(cmd.OutOrStdout(), snap.Steps)
			if runErr != nil {
				return runErr
			}
			return printPlan(cmd.OutOrStdout(), &render, snap)
		},
	}
	render.bind(cmd)
	cmd.Flags().StringVar(&topic, "topic", "", "Override the discovery search topic")
	cmd.Flags().StringVar(&near, "near", "", "Operator location as lat,lng for maps grounding")
	return cmd
}

func newInterveneCommand(e *env) *cobra.Command {
	var render renderOptions
	cmd := &cobra.Command{
		Use:   "intervene [report-id]",
		Short: "Generate a tactical deployment plan for one facility",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			runErr := c.Coordinator.RunIntervention(cmd.Context(), args[0])
			snap := c.Coordinator.State.Snapshot()
			printSteps(cmd.OutOrStdout(), snap.Steps)
			if runErr != nil {
				return runErr
			}
			return printPlan(cmd.OutOrStdout(), &render, snap)
		},
	}
	render.bind(cmd)
	return cmd
}

func newQueryCommand(e *env) *cobra.Command {
	var render renderOptions
	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Ask a planning question over the current facility reports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Coordinator.RunQuery(cmd.Context(), strings.Join(args, " ")); err != nil {
				return err
			}
			return printPlan(cmd.OutOrStdout(), &render, c.Coordinator.State.Snapshot())
		},
	}
	render.bind(cmd)
	return cmd
}

func newChatCommand(e *env) *cobra.Command {
	var render renderOptions
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the planning assistant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Coordinator.Chat(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := render.print(cmd.OutOrStdout(), res.Text); err != nil {
				return err
			}
			printSources(cmd.OutOrStdout(), res.Grounding)
			return nil
		},
	}
	render.bind(cmd)
	return cmd
}

func newReportsCommand(e *env) *cobra.Command {
	var (
		search string
		region string
		near   string
		radius float64
	)
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List facility reports in the knowledge grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			reports := catalog.FilterReports(c.Coordinator.State.Reports(), search, region)
			var center *model.LatLng
			if near != "" {
				loc, err := parseLatLng(near)
				if err != nil {
					return err
				}
				center = &loc
				reports = geo.WithinRadius(reports, loc, radius)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			header := "ID\tFACILITY\tREGION\tGAPS"
			if center != nil {
				header += "\tDISTANCE"
			}
			printf(tw, "%s\n", header)
			for _, r := range reports {
				line := fmt.Sprintf("%s\t%s\t%s\t%s", r.ID, r.FacilityName, r.Region, strings.Join(r.Gaps(), ", "))
				if loc, ok := r.Location(); ok && center != nil {
					line += fmt.Sprintf("\t%.1f km", geo.Distance(*center, loc))
				}
				printf(tw, "%s\n", line)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive facility or region substring")
	cmd.Flags().StringVarP(&region, "region", "r", catalog.AllRegions, "Region filter")
	cmd.Flags().StringVar(&near, "near", "", "Only reports near lat,lng")
	cmd.Flags().Float64Var(&radius, "radius", 100, "Radius in km for --near")
	return cmd
}

func newAuditCommand(e *env) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			logs, err := c.Audit.List(cmd.Context(), status)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			printf(tw, "TIME\tSTATUS\tUSER\tEVENT\n")
			for _, l := range logs {
				printf(tw, "%s\t%s\t%s\t%s\n", l.Timestamp, l.Status, l.User, l.Event)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "all", "Filter by status (all, success, warning, info)")
	return cmd
}

func printSteps(w io.Writer, steps []model.AgentStep) {
	for _, s := range steps {
		line := fmt.Sprintf("[%s] %s: %s", s.Status, s.AgentName, s.Action)
		if s.Description != "" {
			line += " - " + s.Description
		}
		if s.Metrics != nil {
			line += fmt.Sprintf(" (%dms)", s.Metrics.ExecutionTime)
		}
		printf(w, "%s\n", line)
	}
}

func printPlan(w io.Writer, render *renderOptions, snap workflow.Snapshot) error {
	if snap.Plan == nil {
		printf(w, "No plan generated.\n")
		return nil
	}
	printf(w, "\n")
	if err := render.print(w, *snap.Plan); err != nil {
		return err
	}
	printSources(w, snap.Grounding)
	return nil
}

func printSources(w io.Writer, links []model.GroundingLink) {
	if len(links) == 0 {
		return
	}
	printf(w, "\nSources:\n")
	for _, l := range links {
		if l.Title != "" {
			printf(w, "  - %s (%s)\n", l.Title, l.URI)
			continue
		}
		printf(w, "  - %s\n", l.URI)
	}
}

func parseLatLng(s string) (model.LatLng, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.LatLng{}, fmt.Errorf("invalid location %q, want lat,lng", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.LatLng{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.LatLng{}, fmt.Errorf("invalid longitude: %w", err)
	}
	return model.LatLng{Lat: lat, Lng: lng}, nil
}
