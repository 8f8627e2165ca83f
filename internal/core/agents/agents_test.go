package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/meddesert/internal/config"
	"github.com/agenthands/meddesert/internal/core/model"
	"github.com/agenthands/meddesert/internal/llm"
)

func newTestAgents(t *testing.T, mock *llm.MockLLMClient) *Agents {
	t.Helper()
	logger, _ := test.NewNullLogger()
	a, err := New(mock, config.DefaultPrompts(), Models{Default: "flash", Strategist: "strategist"}, "Ghana", logger)
	require.NoError(t, err)
	return a.WithRandom(func() float64 { return 0.5 })
}

// TestDiscoverParsesFencedArray checks that code-fenced discovery output is parsed,
// ids are assigned and grounding is passed through.
func TestDiscoverParsesFencedArray(t *testing.T) {
	mock := &llm.MockLLMClient{Response: llm.Response{
		Text: "```json\n[{\"facilityName\": \"Tamale Teaching Hospital\", \"region\": \"Northern\", \"coordinates\": [9.4, -0.85]}]\n```",
		Grounding: []model.GroundingLink{
			{URI: "https://example.org/tamale", Source: "web"},
		},
	}}
	a := newTestAgents(t, mock)

	res, err := a.Discover(context.Background(), "Northern Ghana")
	require.NoError(t, err)

	require.Len(t, res.Reports, 1)
	assert.Equal(t, "Tamale Teaching Hospital", res.Reports[0].FacilityName)
	assert.NotEmpty(t, res.Reports[0].ID)
	assert.Len(t, res.Grounding, 1)
	assert.InDelta(t, 0.975, res.Metrics.SuccessRate, 1e-9)
	assert.InDelta(t, 0.025, res.Metrics.HallucinationScore, 1e-9)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Northern Ghana")
	assert.Equal(t, []llm.Tool{llm.ToolWebSearch}, calls[0].Tools)
	require.NotNil(t, calls[0].Schema)
	assert.Equal(t, llm.TypeArray, calls[0].Schema.Type)
	assert.Equal(t, "flash", calls[0].Model)
}

func TestDiscoverEmptyText(t *testing.T) {
	a := newTestAgents(t, llm.NewMockLLMClient(""))

	res, err := a.Discover(context.Background(), "Ghana")
	require.NoError(t, err)
	assert.Empty(t, res.Reports)
}

func TestDiscoverMalformed(t *testing.T) {
	a := newTestAgents(t, llm.NewMockLLMClient("[{\"facilityName\": "))

	_, err := a.Discover(context.Background(), "Ghana")
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	mock := llm.NewMockLLMClient(`{"facilityName": "Korle-Bu", "beds": 2000, "equipmentList": [{"name": "MRI", "status": "Offline"}], "gaps": ["MRI"], "confidence": 0.9}`)
	a := newTestAgents(t, mock)

	res, err := a.Parse(context.Background(), "Korle-Bu has 2000 beds and a broken MRI.")
	require.NoError(t, err)

	assert.Equal(t, "Korle-Bu", res.FacilityName)
	assert.Equal(t, 2000, res.Beds)
	assert.Equal(t, model.EquipmentOffline, res.EquipmentList[0].Status)
	assert.Contains(t, mock.Calls()[0].Prompt, "broken MRI")
	assert.Equal(t, llm.TypeObject, mock.Calls()[0].Schema.Type)
}

func TestVerifyIncludesFacilityAndData(t *testing.T) {
	mock := &llm.MockLLMClient{Response: llm.Response{Text: "Verified."}}
	a := newTestAgents(t, mock)

	res, err := a.Verify(context.Background(), model.ParsedCapabilities{FacilityName: "Ho Teaching Hospital", Beds: 400}, "raw narrative")
	require.NoError(t, err)
	assert.Equal(t, "Verified.", res.Text)

	prompt := mock.Calls()[0].Prompt
	assert.Contains(t, prompt, `"Ho Teaching Hospital"`)
	assert.Contains(t, prompt, `"beds":400`)
	assert.Contains(t, prompt, "raw narrative")
	assert.Nil(t, mock.Calls()[0].Schema)
}

func TestStrategizeUsesMapsAndLocation(t *testing.T) {
	mock := &llm.MockLLMClient{Response: llm.Response{Text: "## Plan"}}
	a := newTestAgents(t, mock)

	loc := &model.LatLng{Lat: 5.6, Lng: -0.2}
	reports := []model.HospitalReport{{FacilityName: "A"}, {FacilityName: "B"}}
	res, err := a.Strategize(context.Background(), reports, loc)
	require.NoError(t, err)
	assert.Equal(t, "## Plan", res.Text)

	call := mock.Calls()[0]
	assert.Equal(t, "strategist", call.Model)
	assert.Contains(t, call.Prompt, "A, B")
	assert.Contains(t, call.Prompt, "Ghana")
	assert.True(t, call.HasTool(llm.ToolMaps))
	assert.True(t, call.HasTool(llm.ToolWebSearch))
	assert.Equal(t, loc, call.Location)
}

func TestMatchAndPredict(t *testing.T) {
	mock := llm.NewMockLLMClient(
		`{"recommendations": [{"facility": "Tamale", "role": "Anaesthetist", "reason": "night cover", "priority": "High"}]}`,
		`{"forecasts": [{"region": "Northern", "futureGap": "Oxygen", "probability": 0.7, "timeframe": "6 months"}]}`,
	)
	a := newTestAgents(t, mock)
	reports := []model.HospitalReport{{FacilityName: "Tamale"}}

	m, err := a.Match(context.Background(), reports)
	require.NoError(t, err)
	require.Len(t, m.Recommendations, 1)
	assert.Equal(t, "Anaesthetist", m.Recommendations[0].Role)

	p, err := a.Predict(context.Background(), reports)
	require.NoError(t, err)
	require.Len(t, p.Forecasts, 1)
	assert.InDelta(t, 0.7, p.Forecasts[0].Probability, 1e-9)
}

func TestQueryAndIntervention(t *testing.T) {
	mock := &llm.MockLLMClient{Response: llm.Response{Text: "answer"}}
	a := newTestAgents(t, mock)

	report := model.HospitalReport{
		FacilityName:  "Sefwi-Wiawso",
		ExtractedData: &model.ExtractedData{Gaps: []string{"X-ray", "Surgeon"}},
	}
	q, err := a.InterventionQuestion(report)
	require.NoError(t, err)
	assert.Contains(t, q, "Sefwi-Wiawso addressing these specific gaps: X-ray, Surgeon")

	res, err := a.Query(context.Background(), q, []model.HospitalReport{report})
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Text)
	assert.Contains(t, mock.Calls()[0].Prompt, "Sefwi-Wiawso")
}

func TestInterventionQuestionWithoutExtractedData(t *testing.T) {
	a := newTestAgents(t, &llm.MockLLMClient{})

	q, err := a.InterventionQuestion(model.HospitalReport{FacilityName: "X"})
	require.NoError(t, err)
	assert.Contains(t, q, "gaps: .")
}

func TestChat(t *testing.T) {
	mock := &llm.MockLLMClient{Response: llm.Response{Text: "Western North is most severe."}}
	a := newTestAgents(t, mock)

	res, err := a.Chat(context.Background(), "Which region is worst?", nil, []model.MedicalDesert{{Region: "Western North", Severity: 92}})
	require.NoError(t, err)
	assert.Equal(t, "Western North is most severe.", res.Text)
	assert.Contains(t, mock.Calls()[0].Prompt, "Western North")
}

func TestCallErrorIsWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	a := newTestAgents(t, &llm.MockLLMClient{Err: boom})

	_, err := a.Parse(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "parser agent failed")
}

func TestNewRejectsBrokenTemplates(t *testing.T) {
	prompts := config.DefaultPrompts()
	prompts.Parser = "{{.Text"
	_, err := New(&llm.MockLLMClient{}, prompts, Models{}, "Ghana", nil)
	assert.Error(t, err)

	prompts = config.DefaultPrompts()
	prompts.Chat = ""
	_, err = New(&llm.MockLLMClient{}, prompts, Models{}, "Ghana", nil)
	assert.Error(t, err)
}

func TestStrategistFallsBackToDefaultModel(t *testing.T) {
	mock := &llm.MockLLMClient{}
	logger, _ := test.NewNullLogger()
	a, err := New(mock, config.DefaultPrompts(), Models{Default: "flash"}, "Ghana", logger)
	require.NoError(t, err)

	_, err = a.Strategize(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "flash", mock.Calls()[0].Model)
}
