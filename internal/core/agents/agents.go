package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agenthands/meddesert/internal/config"
	"github.com/agenthands/meddesert/internal/core/common"
	"github.com/agenthands/meddesert/internal/core/model"
	"github.com/agenthands/meddesert/internal/llm"
)

// Models selects the model id per stage. Strategist falls back to Default.
type Models struct {
	Default    string
	Strategist string
}

// Agents issues one templated model call per pipeline stage. None of the calls retry.
type Agents struct {
	LLM    llm.LLMClient
	Models Models
	Region string
	Logger logrus.FieldLogger

	prompts *templates
	random  func() float64
}

func New(client llm.LLMClient, prompts config.Prompts, models Models, region string, logger logrus.FieldLogger) (*Agents, error) {
	t, err := parseTemplates(prompts)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Agents{
		LLM:     client,
		Models:  models,
		Region:  region,
		Logger:  logger,
		prompts: t,
		random:  rand.Float64,
	}, nil
}

// WithRandom replaces the source used for the simulated quality metrics. f must return values in [0, 1).
func (a *Agents) WithRandom(f func() float64) *Agents {
	a.random = f
	return a
}

type DiscoveryResult struct {
	Reports   []model.HospitalReport
	Grounding []model.GroundingLink
	Metrics   model.Metrics
}

type ParseResult struct {
	model.ParsedCapabilities
	Metrics model.Metrics `json:"-"`
}

// TextResult is a prose answer from a retrieval-grounded stage.
type TextResult struct {
	Text      string
	Grounding []model.GroundingLink
	Metrics   model.Metrics
}

type MatchResult struct {
	Recommendations []model.Recommendation
	Metrics         model.Metrics
}

type PredictResult struct {
	Forecasts []model.Forecast
	Metrics   model.Metrics
}

// Discover searches the web for recent facility reports about topic. Reports
// without an id are given one.
func (a *Agents) Discover(ctx context.Context, topic string) (*DiscoveryResult, error) {
	prompt, err := render(a.prompts.discovery, struct{ Topic string }{topic})
	if err != nil {
		return nil, err
	}

	resp, metrics, err := a.call(ctx, "discovery", llm.Request{
		Model:  a.Models.Default,
		Prompt: prompt,
		Schema: discoverySchema(),
		Tools:  []llm.Tool{llm.ToolWebSearch},
	})
	if err != nil {
		return nil, err
	}

	text := resp.Text
	if strings.TrimSpace(text) == "" {
		text = "[]"
	}
	reports, err := common.ParseJSON[[]model.HospitalReport](text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse discovery result: %w", err)
	}
	for i := range reports {
		if reports[i].ID == "" {
			reports[i].ID = uuid.New().String()
		}
	}

	return &DiscoveryResult{Reports: reports, Grounding: resp.Grounding, Metrics: metrics}, nil
}

// Parse extracts structured capabilities from free-text reports.
func (a *Agents) Parse(ctx context.Context, text string) (*ParseResult, error) {
	prompt, err := render(a.prompts.parser, struct{ Text string }{text})
	if err != nil {
		return nil, err
	}

	resp, metrics, err := a.call(ctx, "parser", llm.Request{
		Model:  a.Models.Default,
		Prompt: prompt,
		Schema: parserSchema(),
	})
	if err != nil {
		return nil, err
	}

	parsed, err := common.ParseJSON[model.ParsedCapabilities](resp.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extraction result: %w", err)
	}
	return &ParseResult{ParsedCapabilities: parsed, Metrics: metrics}, nil
}

// Verify cross-checks parsed capabilities against the raw text and the web.
func (a *Agents) Verify(ctx context.Context, parsed model.ParsedCapabilities, raw string) (*TextResult, error) {
	data, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parsed data: %w", err)
	}
	prompt, err := render(a.prompts.verifier, struct {
		FacilityName string
		Data         string
		Raw          string
	}{parsed.FacilityName, string(data), raw})
	if err != nil {
		return nil, err
	}

	return a.text(ctx, "verifier", llm.Request{
		Model:  a.Models.Default,
		Prompt: prompt,
		Tools:  []llm.Tool{llm.ToolWebSearch},
	})
}

// Strategize synthesizes the regional resource allocation plan. location, when known,
// anchors maps retrieval.
func (a *Agents) Strategize(ctx context.Context, reports []model.HospitalReport, location *model.LatLng) (*TextResult, error) {
	names := make([]string, 0, len(reports))
	for _, r := range reports {
		names = append(names, r.FacilityName)
	}
	prompt, err := render(a.prompts.strategist, struct {
		Region     string
		Facilities string
	}{a.Region, strings.Join(names, ", ")})
	if err != nil {
		return nil, err
	}

	modelID := a.Models.Strategist
	if modelID == "" {
		modelID = a.Models.Default
	}
	return a.text(ctx, "strategist", llm.Request{
		Model:    modelID,
		Prompt:   prompt,
		Tools:    []llm.Tool{llm.ToolMaps, llm.ToolWebSearch},
		Location: location,
	})
}

// Match suggests staffing placements for the given reports.
func (a *Agents) Match(ctx context.Context, reports []model.HospitalReport) (*MatchResult, error) {
	data, err := json.Marshal(reports)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reports: %w", err)
	}
	prompt, err := render(a.prompts.matcher, struct{ Reports string }{string(data)})
	if err != nil {
		return nil, err
	}

	resp, metrics, err := a.call(ctx, "matcher", llm.Request{
		Model:  a.Models.Default,
		Prompt: prompt,
		Schema: matcherSchema(),
	})
	if err != nil {
		return nil, err
	}

	out, err := common.ParseJSON[model.Recommendations](resp.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse matcher result: %w", err)
	}
	return &MatchResult{Recommendations: out.Recommendations, Metrics: metrics}, nil
}

// Predict forecasts how infrastructure gaps will evolve.
func (a *Agents) Predict(ctx context.Context, reports []model.HospitalReport) (*PredictResult, error) {
	data, err := json.Marshal(reports)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reports: %w", err)
	}
	prompt, err := render(a.prompts.predictor, struct{ Reports string }{string(data)})
	if err != nil {
		return nil, err
	}

	resp, metrics, err := a.call(ctx, "predictor", llm.Request{
		Model:  a.Models.Default,
		Prompt: prompt,
		Schema: predictorSchema(),
	})
	if err != nil {
		return nil, err
	}

	out, err := common.ParseJSON[model.Forecasts](resp.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse predictor result: %w", err)
	}
	return &PredictResult{Forecasts: out.Forecasts, Metrics: metrics}, nil
}

// Query answers a planner question over data with web search.
func (a *Agents) Query(ctx context.Context, question string, data interface{}) (*TextResult, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query data: %w", err)
	}
	prompt, err := render(a.prompts.query, struct {
		Query string
		Data  string
	}{question, string(encoded)})
	if err != nil {
		return nil, err
	}

	return a.text(ctx, "query", llm.Request{
		Model:  a.Models.Default,
		Prompt: prompt,
		Tools:  []llm.Tool{llm.ToolWebSearch},
	})
}

// InterventionQuestion builds the tactical plan request for a single facility.
func (a *Agents) InterventionQuestion(report model.HospitalReport) (string, error) {
	return render(a.prompts.intervention, struct {
		FacilityName string
		Gaps         string
	}{report.FacilityName, strings.Join(report.Gaps(), ", ")})
}

// Chat answers an operator message using the current reports and desert regions.
func (a *Agents) Chat(ctx context.Context, message string, reports []model.HospitalReport, deserts []model.MedicalDesert) (*TextResult, error) {
	r, err := json.Marshal(reports)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reports: %w", err)
	}
	d, err := json.Marshal(deserts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode deserts: %w", err)
	}
	prompt, err := render(a.prompts.chat, struct {
		Query   string
		Reports string
		Deserts string
	}{message, string(r), string(d)})
	if err != nil {
		return nil, err
	}

	return a.text(ctx, "chat", llm.Request{
		Model:  a.Models.Default,
		Prompt: prompt,
		Tools:  []llm.Tool{llm.ToolWebSearch},
	})
}

func (a *Agents) text(ctx context.Context, stage string, req llm.Request) (*TextResult, error) {
	resp, metrics, err := a.call(ctx, stage, req)
	if err != nil {
		return nil, err
	}
	return &TextResult{Text: resp.Text, Grounding: resp.Grounding, Metrics: metrics}, nil
}

func (a *Agents) call(ctx context.Context, stage string, req llm.Request) (llm.Response, model.Metrics, error) {
	start := time.Now()
	resp, err := a.LLM.Generate(ctx, req)
	elapsed := time.Since(start)

	log := a.Logger.WithFields(logrus.Fields{
		"agent":    stage,
		"model":    req.Model,
		"duration": elapsed.String(),
	})
	if err != nil {
		log.WithError(err).Warn("agent call failed")
		return llm.Response{}, model.Metrics{}, fmt.Errorf("%s agent failed: %w", stage, err)
	}
	log.WithField("grounding", len(resp.Grounding)).Debug("agent call completed")

	return resp, a.metrics(elapsed), nil
}

// metrics reports the measured latency. Success rate and hallucination score are
// simulated; the providers expose no such signal.
func (a *Agents) metrics(elapsed time.Duration) model.Metrics {
	return model.Metrics{
		ExecutionTime:      elapsed.Milliseconds(),
		SuccessRate:        0.95 + a.random()*0.05,
		HallucinationScore: a.random() * 0.05,
	}
}
