package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/meddesert/internal/core/agents"
	"github.com/agenthands/meddesert/internal/core/model"
)

var (
	ErrBusy           = errors.New("a workflow is already running")
	ErrReportNotFound = errors.New("report not found")
	ErrEmptyMessage   = errors.New("message is empty")
)

// ReportSink receives every non-empty discovery result. Failures are logged only.
type ReportSink interface {
	SaveReports(ctx context.Context, reports []model.HospitalReport) error
}

// Coordinator runs the agent pipelines against the shared dashboard state. Agent calls
// within a run are strictly sequential and only one run is in flight at a time.
type Coordinator struct {
	Agents *agents.Agents
	State  *State
	Sink   ReportSink
	Logger logrus.FieldLogger
	// Topic is the discovery search topic.
	Topic string
	// Timeout bounds background runs; zero means no limit.
	Timeout time.Duration
}

func NewCoordinator(a *agents.Agents, state *State, topic string, logger logrus.FieldLogger) *Coordinator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Coordinator{
		Agents: a,
		State:  state,
		Logger: logger,
		Topic:  topic,
	}
}

// RunAgentic runs discovery, parse, verify, predict and synthesize. The first failing
// stage aborts the rest; completed stages keep their status.
func (c *Coordinator) RunAgentic(ctx context.Context) error {
	if !c.State.begin(true, true) {
		return ErrBusy
	}
	return c.agentic(ctx)
}

// StartAgentic begins a run in the background. The run is detached from ctx
// cancellation; the returned channel yields its result once.
func (c *Coordinator) StartAgentic(ctx context.Context) (<-chan error, error) {
	if !c.State.begin(true, true) {
		return nil, ErrBusy
	}
	return c.background(ctx, c.agentic), nil
}

func (c *Coordinator) agentic(ctx context.Context) error {
	defer c.State.finish()

	if err := c.pipeline(ctx); err != nil {
		c.Logger.WithError(err).Error("Agent workflow failed")
		c.State.failActiveStep("Stage aborted.")
		c.State.appendStep(model.AgentStrategist, "Error Handling", model.StepError, "Inference core connection failed.")
		return err
	}
	return nil
}

func (c *Coordinator) pipeline(ctx context.Context) error {
	c.State.addStep(model.AgentParser, "Internet Discovery", "Querying global nodes for real-world hospital reports (2024-2025)...")
	discovery, err := c.Agents.Discover(ctx, c.Topic)
	if err != nil {
		return err
	}

	activeReports := c.State.Reports()
	if len(discovery.Reports) > 0 {
		activeReports = discovery.Reports
		c.State.setReports(discovery.Reports)
		c.State.appendGrounding(discovery.Grounding)
		c.State.updateLastStep(model.StepUpdate{
			Status:      model.StepCompleted,
			Description: fmt.Sprintf("Discovered %d live infrastructure nodes via Google Search grounding.", len(discovery.Reports)),
			Metrics:     &discovery.Metrics,
		})
		c.saveReports(ctx, discovery.Reports)
	} else {
		c.State.updateLastStep(model.StepUpdate{
			Status:      model.StepError,
			Description: "No real-world reports found in recent index. Falling back to knowledge buffers.",
		})
	}

	c.State.addStep(model.AgentParser, "IDP Feature Extraction", "Decomposing clinical reports into vector components.")
	narratives := make([]string, 0, len(activeReports))
	for _, r := range activeReports {
		narratives = append(narratives, r.UnstructuredText)
	}
	currentText := strings.Join(narratives, "\n")
	parsed, err := c.Agents.Parse(ctx, currentText)
	if err != nil {
		return err
	}
	c.State.updateLastStep(model.StepUpdate{Status: model.StepCompleted, Metrics: &parsed.Metrics, Output: parsed.ParsedCapabilities})

	c.State.addStep(model.AgentVerifier, "Semantic Verification", "Cross-checking reported capabilities with public registry.")
	verification, err := c.Agents.Verify(ctx, parsed.ParsedCapabilities, currentText)
	if err != nil {
		return err
	}
	c.State.updateLastStep(model.StepUpdate{Status: model.StepCompleted, Metrics: &verification.Metrics, Output: verification.Text})

	c.State.addStep(model.AgentPredictor, "Gap Forecasting", "Analyzing risk vectors for medical desert expansion.")
	prediction, err := c.Agents.Predict(ctx, activeReports)
	if err != nil {
		return err
	}
	c.State.updateLastStep(model.StepUpdate{Status: model.StepCompleted, Metrics: &prediction.Metrics, Output: prediction.Forecasts})

	c.State.addStep(model.AgentStrategist, "Strategic RAG Synthesis", "Synthesizing final regional resource model.")
	strategy, err := c.Agents.Strategize(ctx, activeReports, c.State.Location())
	if err != nil {
		return err
	}
	c.State.updateLastStep(model.StepUpdate{Status: model.StepCompleted, Metrics: &strategy.Metrics})

	c.State.setPlan(strategy.Text)
	c.State.appendGrounding(strategy.Grounding)
	return nil
}

// RunIntervention matches specialists to one facility and synthesizes a tactical plan for it.
func (c *Coordinator) RunIntervention(ctx context.Context, reportID string) error {
	report, ok := c.State.Report(reportID)
	if !ok {
		return ErrReportNotFound
	}
	if !c.State.begin(true, false) {
		return ErrBusy
	}
	return c.intervention(ctx, report)
}

func (c *Coordinator) StartIntervention(ctx context.Context, reportID string) (<-chan error, error) {
	report, ok := c.State.Report(reportID)
	if !ok {
		return nil, ErrReportNotFound
	}
	if !c.State.begin(true, false) {
		return nil, ErrBusy
	}
	return c.background(ctx, func(ctx context.Context) error {
		return c.intervention(ctx, report)
	}), nil
}

func (c *Coordinator) intervention(ctx context.Context, report model.HospitalReport) error {
	defer c.State.finish()

	err := c.interventionSteps(ctx, report)
	if err != nil {
		c.Logger.WithError(err).WithField("facility", report.FacilityName).Error("Intervention failed")
		c.State.failActiveStep("Intervention failed.")
	}
	return err
}

func (c *Coordinator) interventionSteps(ctx context.Context, report model.HospitalReport) error {
	c.State.addStep(model.AgentMatcher, "Tactical Deployment", fmt.Sprintf("Initializing intervention protocol for %s...", report.FacilityName))
	matching, err := c.Agents.Match(ctx, []model.HospitalReport{report})
	if err != nil {
		return err
	}
	c.State.updateLastStep(model.StepUpdate{
		Status:      model.StepCompleted,
		Description: fmt.Sprintf("Calculated specialist allocation matrix for %s.", report.FacilityName),
		Metrics:     &matching.Metrics,
		Output:      matching.Recommendations,
	})

	c.State.addStep(model.AgentStrategist, "Intervention Synthesis", "Generating final deployment orders.")
	question, err := c.Agents.InterventionQuestion(report)
	if err != nil {
		return err
	}
	res, err := c.Agents.Query(ctx, question, []model.HospitalReport{report})
	if err != nil {
		return err
	}
	c.State.updateLastStep(model.StepUpdate{Status: model.StepCompleted, Metrics: &res.Metrics})

	c.State.setPlan(res.Text)
	c.State.replaceGrounding(res.Grounding)
	return nil
}

// RunQuery answers a free-text planner question over the current reports and makes
// the answer the plan. A blank question does nothing.
func (c *Coordinator) RunQuery(ctx context.Context, question string) error {
	if strings.TrimSpace(question) == "" {
		return nil
	}
	if !c.State.begin(false, false) {
		return ErrBusy
	}
	defer c.State.finish()

	res, err := c.Agents.Query(ctx, question, c.State.Reports())
	if err != nil {
		c.Logger.WithError(err).Error("Query failed")
		return err
	}
	c.State.setPlan(res.Text)
	c.State.replaceGrounding(res.Grounding)
	return nil
}

// Chat answers an assistant message without touching the plan or the thinking flag.
func (c *Coordinator) Chat(ctx context.Context, message string) (*agents.TextResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	return c.Agents.Chat(ctx, message, c.State.Reports(), c.State.Deserts())
}

func (c *Coordinator) saveReports(ctx context.Context, reports []model.HospitalReport) {
	if c.Sink == nil {
		return
	}
	if err := c.Sink.SaveReports(ctx, reports); err != nil {
		c.Logger.WithError(err).Warn("Failed to persist discovered reports")
	}
}

func (c *Coordinator) background(parent context.Context, run func(context.Context) error) <-chan error {
	ctx := context.WithoutCancel(parent)
	cancel := func() {}
	if c.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
	}

	done := make(chan error, 1)
	go func() {
		defer cancel()
		done <- run(ctx)
		close(done)
	}()
	return done
}
