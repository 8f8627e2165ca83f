package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agenthands/meddesert/internal/config"
	"github.com/agenthands/meddesert/internal/core/agents"
	"github.com/agenthands/meddesert/internal/core/model"
	"github.com/agenthands/meddesert/internal/llm"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	discoveryJSON = `[{"id": "d-1", "facilityName": "Sefwi Wiawso Municipal Hospital", "region": "Western North", "unstructuredText": "No surgeon on site.", "coordinates": [6.2, -2.48]},
{"facilityName": "Bole District Hospital", "region": "Savannah", "unstructuredText": "Oxygen offline."}]`
	parserJSON    = `{"facilityName": "Sefwi Wiawso Municipal Hospital", "beds": 80, "specialties": ["General Medicine"], "gaps": ["Surgery"], "confidence": 0.8}`
	predictorJSON = `{"forecasts": [{"region": "Western North", "futureGap": "Obstetric surgery", "probability": 0.7, "timeframe": "12 months"}]}`
	matcherJSON   = `{"recommendations": [{"facility": "Tamale Teaching Hospital", "role": "Anaesthetist", "reason": "No cover at night", "priority": "High"}]}`
)

var seedReports = []model.HospitalReport{
	{
		ID:               "h-tamale",
		FacilityName:     "Tamale Teaching Hospital",
		Region:           "Northern",
		UnstructuredText: "Theatre closed two days a week.",
		Coordinates:      []float64{9.4, -0.85},
		ExtractedData:    &model.ExtractedData{Gaps: []string{"Anaesthesia cover"}},
	},
}

type recordingSink struct {
	mu      sync.Mutex
	saved   [][]model.HospitalReport
	failErr error
}

func (s *recordingSink) SaveReports(ctx context.Context, reports []model.HospitalReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, reports)
	return s.failErr
}

func newTestCoordinator(t *testing.T, mock *llm.MockLLMClient) *Coordinator {
	t.Helper()
	logger, _ := test.NewNullLogger()
	a, err := agents.New(mock, config.DefaultPrompts(), agents.Models{Default: "flash", Strategist: "pro"}, "Ghana", logger)
	require.NoError(t, err)
	a.WithRandom(func() float64 { return 0 })

	state := NewState(seedReports, []model.MedicalDesert{{ID: "d-northern", Region: "Northern", Severity: 87}})
	return NewCoordinator(a, state, "hospital capacity Ghana", logger)
}

func statuses(steps []model.AgentStep) []model.StepStatus {
	out := make([]model.StepStatus, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Status)
	}
	return out
}

func TestRunAgenticCompletesAllStages(t *testing.T) {
	mock := llm.NewMockLLMClient(discoveryJSON, parserJSON, "Verified.", predictorJSON, "## Plan\n- **Deploy** surgeons")
	mock.ResponseQueue[0].Grounding = []model.GroundingLink{{URI: "https://news.example/ghana", Source: "web"}}
	mock.ResponseQueue[4].Grounding = []model.GroundingLink{{URI: "https://maps.example/tamale", Source: "maps"}}
	sink := &recordingSink{}
	c := newTestCoordinator(t, mock)
	c.Sink = sink
	c.State.SetLocation(&model.LatLng{Lat: 5.6, Lng: -0.19})

	require.NoError(t, c.RunAgentic(context.Background()))

	snap := c.State.Snapshot()
	assert.False(t, snap.IsThinking)
	assert.Equal(t, model.ViewAnalysis, snap.ActiveView)
	require.Len(t, snap.Reports, 2)
	assert.Equal(t, "d-1", snap.Reports[0].ID)
	assert.NotEmpty(t, snap.Reports[1].ID)

	require.Len(t, snap.Steps, 5)
	actions := []string{}
	for _, s := range snap.Steps {
		actions = append(actions, s.Action)
		require.NotNil(t, s.Metrics)
	}
	assert.Equal(t, []string{
		"Internet Discovery",
		"IDP Feature Extraction",
		"Semantic Verification",
		"Gap Forecasting",
		"Strategic RAG Synthesis",
	}, actions)
	assert.Equal(t, []model.StepStatus{
		model.StepCompleted, model.StepCompleted, model.StepCompleted, model.StepCompleted, model.StepCompleted,
	}, statuses(snap.Steps))
	assert.Equal(t, "Discovered 2 live infrastructure nodes via Google Search grounding.", snap.Steps[0].Description)
	assert.Equal(t, model.AgentStrategist, snap.Steps[4].AgentName)

	require.NotNil(t, snap.Plan)
	assert.Contains(t, *snap.Plan, "Deploy")
	assert.Len(t, snap.Grounding, 2)

	calls := mock.Calls()
	require.Len(t, calls, 5)
	assert.Contains(t, calls[0].Prompt, "hospital capacity Ghana")
	assert.Contains(t, calls[1].Prompt, "No surgeon on site.\nOxygen offline.")
	assert.Equal(t, "pro", calls[4].Model)
	require.NotNil(t, calls[4].Location)
	assert.Equal(t, 5.6, calls[4].Location.Lat)

	require.Len(t, sink.saved, 1)
	assert.Len(t, sink.saved[0], 2)
}

// TestRunAgenticEmptyDiscoveryKeepsReports checks the fallback to the existing
// reports when discovery finds nothing.
func TestRunAgenticEmptyDiscoveryKeepsReports(t *testing.T) {
	mock := llm.NewMockLLMClient("[]", parserJSON, "Verified.", predictorJSON, "Plan")
	sink := &recordingSink{}
	c := newTestCoordinator(t, mock)
	c.Sink = sink

	require.NoError(t, c.RunAgentic(context.Background()))

	snap := c.State.Snapshot()
	require.Len(t, snap.Reports, 1)
	assert.Equal(t, "h-tamale", snap.Reports[0].ID)
	require.Len(t, snap.Steps, 5)
	assert.Equal(t, model.StepError, snap.Steps[0].Status)
	assert.Equal(t, "No real-world reports found in recent index. Falling back to knowledge buffers.", snap.Steps[0].Description)
	assert.Equal(t, model.StepCompleted, snap.Steps[4].Status)
	assert.Empty(t, sink.saved)

	calls := mock.Calls()
	assert.Contains(t, calls[1].Prompt, "Theatre closed two days a week.")
}

func TestRunAgenticMalformedOutputAborts(t *testing.T) {
	mock := llm.NewMockLLMClient(discoveryJSON, "not json at all")
	c := newTestCoordinator(t, mock)

	err := c.RunAgentic(context.Background())
	require.Error(t, err)

	snap := c.State.Snapshot()
	assert.False(t, snap.IsThinking)
	assert.Nil(t, snap.Plan)
	require.Len(t, snap.Steps, 3)
	assert.Equal(t, []model.StepStatus{model.StepCompleted, model.StepError, model.StepError}, statuses(snap.Steps))
	assert.Equal(t, "Error Handling", snap.Steps[2].Action)
	assert.Equal(t, model.AgentStrategist, snap.Steps[2].AgentName)
	assert.Equal(t, "Inference core connection failed.", snap.Steps[2].Description)
	assert.Len(t, mock.Calls(), 2)
}

func TestRunAgenticModelFailure(t *testing.T) {
	mock := llm.NewMockLLMClient(discoveryJSON, parserJSON, "Verified.")
	mock.ErrAt = map[int]error{3: errors.New("quota exceeded")}
	c := newTestCoordinator(t, mock)

	err := c.RunAgentic(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	snap := c.State.Snapshot()
	assert.False(t, snap.IsThinking)
	assert.Equal(t, []model.StepStatus{
		model.StepCompleted, model.StepCompleted, model.StepCompleted, model.StepError, model.StepError,
	}, statuses(snap.Steps))
}

func TestRunAgenticClearsPreviousRun(t *testing.T) {
	mock := llm.NewMockLLMClient(discoveryJSON, parserJSON, "Verified.", predictorJSON, "First plan")
	c := newTestCoordinator(t, mock)
	require.NoError(t, c.RunAgentic(context.Background()))

	mock.ResponseQueue = []llm.Response{{Text: "[]"}, {Text: parserJSON}, {Text: "Verified."}, {Text: predictorJSON}, {Text: "Second plan"}}
	require.NoError(t, c.RunAgentic(context.Background()))

	snap := c.State.Snapshot()
	assert.Len(t, snap.Steps, 5)
	require.NotNil(t, snap.Plan)
	assert.Equal(t, "Second plan", *snap.Plan)
}

func TestRunAgenticBusy(t *testing.T) {
	c := newTestCoordinator(t, llm.NewMockLLMClient())
	require.True(t, c.State.begin(true, true))
	defer c.State.finish()

	assert.ErrorIs(t, c.RunAgentic(context.Background()), ErrBusy)
	_, err := c.StartAgentic(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, c.RunQuery(context.Background(), "status?"), ErrBusy)
}

func TestStartAgenticIgnoresCallerCancellation(t *testing.T) {
	mock := llm.NewMockLLMClient(discoveryJSON, parserJSON, "Verified.", predictorJSON, "Plan")
	c := newTestCoordinator(t, mock)
	c.Timeout = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	done, err := c.StartAgentic(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("workflow did not finish")
	}
	assert.False(t, c.State.Thinking())
	assert.Len(t, c.State.Snapshot().Steps, 5)
}

func TestRunIntervention(t *testing.T) {
	mock := llm.NewMockLLMClient(matcherJSON, "### Orders\n- **Anaesthetist** to Tamale")
	mock.ResponseQueue[1].Grounding = []model.GroundingLink{{URI: "https://ghs.example", Source: "web"}}
	c := newTestCoordinator(t, mock)
	c.State.appendGrounding([]model.GroundingLink{{URI: "https://old.example", Source: "web"}})

	require.NoError(t, c.RunIntervention(context.Background(), "h-tamale"))

	snap := c.State.Snapshot()
	assert.False(t, snap.IsThinking)
	require.Len(t, snap.Steps, 2)
	assert.Equal(t, model.AgentMatcher, snap.Steps[0].AgentName)
	assert.Equal(t, "Tactical Deployment", snap.Steps[0].Action)
	assert.Equal(t, "Calculated specialist allocation matrix for Tamale Teaching Hospital.", snap.Steps[0].Description)
	recs, ok := snap.Steps[0].IntermediateOutput.([]model.Recommendation)
	require.True(t, ok)
	assert.Equal(t, "Anaesthetist", recs[0].Role)
	assert.Equal(t, "Intervention Synthesis", snap.Steps[1].Action)
	assert.Equal(t, model.StepCompleted, snap.Steps[1].Status)

	require.NotNil(t, snap.Plan)
	assert.Contains(t, *snap.Plan, "Orders")
	require.Len(t, snap.Grounding, 1)
	assert.Equal(t, "https://ghs.example", snap.Grounding[0].URI)

	calls := mock.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[1].Prompt, "Tamale Teaching Hospital")
	assert.Contains(t, calls[1].Prompt, "Anaesthesia cover")
}

func TestRunInterventionUnknownReport(t *testing.T) {
	mock := llm.NewMockLLMClient()
	c := newTestCoordinator(t, mock)

	assert.ErrorIs(t, c.RunIntervention(context.Background(), "missing"), ErrReportNotFound)
	_, err := c.StartIntervention(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrReportNotFound)
	assert.Empty(t, mock.Calls())
	assert.False(t, c.State.Thinking())
}

func TestRunInterventionFailureMarksStep(t *testing.T) {
	mock := llm.NewMockLLMClient(matcherJSON)
	mock.ErrAt = map[int]error{1: errors.New("upstream timeout")}
	c := newTestCoordinator(t, mock)

	done, err := c.StartIntervention(context.Background(), "h-tamale")
	require.NoError(t, err)
	require.Error(t, <-done)

	snap := c.State.Snapshot()
	assert.False(t, snap.IsThinking)
	require.Len(t, snap.Steps, 2)
	assert.Equal(t, model.StepCompleted, snap.Steps[0].Status)
	assert.Equal(t, model.StepError, snap.Steps[1].Status)
	assert.Nil(t, snap.Plan)
}

func TestRunQuery(t *testing.T) {
	mock := llm.NewMockLLMClient("Tamale needs anaesthetists.")
	c := newTestCoordinator(t, mock)

	require.NoError(t, c.RunQuery(context.Background(), "Where are anaesthetists needed?"))

	snap := c.State.Snapshot()
	require.NotNil(t, snap.Plan)
	assert.Equal(t, "Tamale needs anaesthetists.", *snap.Plan)
	assert.Empty(t, snap.Steps)
	assert.False(t, snap.IsThinking)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Where are anaesthetists needed?")
	assert.Contains(t, calls[0].Prompt, "h-tamale")
}

func TestRunQueryBlankIsNoop(t *testing.T) {
	mock := llm.NewMockLLMClient()
	c := newTestCoordinator(t, mock)

	require.NoError(t, c.RunQuery(context.Background(), "   "))
	assert.Empty(t, mock.Calls())
	assert.Nil(t, c.State.Snapshot().Plan)
}

func TestChat(t *testing.T) {
	mock := llm.NewMockLLMClient("The Northern desert has severity 87.")
	c := newTestCoordinator(t, mock)

	res, err := c.Chat(context.Background(), "How bad is the north?")
	require.NoError(t, err)
	assert.Equal(t, "The Northern desert has severity 87.", res.Text)
	assert.Nil(t, c.State.Snapshot().Plan)
	assert.Contains(t, mock.Calls()[0].Prompt, "d-northern")

	_, err = c.Chat(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	state := NewState(seedReports, nil)
	updates, cancel := state.Subscribe(8)

	state.SetView(model.ViewMap)
	snap := <-updates
	assert.Equal(t, model.ViewMap, snap.ActiveView)

	cancel()
	cancel()
	_, open := <-updates
	assert.False(t, open)

	// Publishing after cancel must not panic.
	state.SetView(model.ViewAudit)
}

func TestSnapshotIsACopy(t *testing.T) {
	state := NewState(seedReports, nil)
	snap := state.Snapshot()
	snap.Reports[0].FacilityName = "changed"

	r, ok := state.Report("h-tamale")
	require.True(t, ok)
	assert.Equal(t, "Tamale Teaching Hospital", r.FacilityName)
}
