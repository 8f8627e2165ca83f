package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/agenthands/meddesert/internal/config"
	"github.com/agenthands/meddesert/internal/core/model"
)

func facilitySchema() *Schema {
	return ArrayOf(Object(map[string]*Schema{
		"facilityName": String(),
		"beds":         Integer(),
		"coordinates":  ArrayOf(Number()).Describe("[latitude, longitude]"),
		"verified":     Boolean(),
	}))
}

func TestToGeminiSchema(t *testing.T) {
	s := toGeminiSchema(facilitySchema())

	assert.Equal(t, genai.TypeArray, s.Type)
	require.NotNil(t, s.Items)
	assert.Equal(t, genai.TypeObject, s.Items.Type)
	assert.Equal(t, genai.TypeInteger, s.Items.Properties["beds"].Type)
	assert.Equal(t, genai.TypeNumber, s.Items.Properties["coordinates"].Items.Type)
	assert.Equal(t, "[latitude, longitude]", s.Items.Properties["coordinates"].Description)
}

func TestGeminiConfigToolsAndLocation(t *testing.T) {
	req := Request{
		Prompt:   "plan",
		Tools:    []Tool{ToolMaps, ToolWebSearch},
		Location: &model.LatLng{Lat: 5.6, Lng: -0.19},
	}
	cfg := geminiConfig(req)

	require.Len(t, cfg.Tools, 2)
	assert.NotNil(t, cfg.Tools[0].GoogleMaps)
	assert.NotNil(t, cfg.Tools[1].GoogleSearch)
	require.NotNil(t, cfg.ToolConfig)
	assert.InDelta(t, 5.6, *cfg.ToolConfig.RetrievalConfig.LatLng.Latitude, 1e-9)
	assert.Empty(t, cfg.ResponseMIMEType)
}

func TestGeminiConfigSchemaWithoutLocation(t *testing.T) {
	cfg := geminiConfig(Request{Schema: Object(nil), Location: &model.LatLng{}})

	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.NotNil(t, cfg.ResponseSchema)
	assert.Nil(t, cfg.ToolConfig, "location is only sent with maps retrieval")
}

func TestGeminiGrounding(t *testing.T) {
	gm := &genai.GroundingMetadata{
		GroundingChunks: []*genai.GroundingChunk{
			{Web: &genai.GroundingChunkWeb{URI: "https://ghs.gov.gh", Title: "GHS"}},
			nil,
			{Maps: &genai.GroundingChunkMaps{URI: "https://maps.google.com/?cid=1", Title: "Tamale"}},
			{Web: &genai.GroundingChunkWeb{}},
		},
	}

	links := geminiGrounding(gm)
	require.Len(t, links, 2)
	assert.Equal(t, "web", links[0].Source)
	assert.Equal(t, "maps", links[1].Source)
	assert.Nil(t, geminiGrounding(nil))
}

func TestToJSONSchema(t *testing.T) {
	def := toJSONSchema(Object(map[string]*Schema{
		"forecasts": ArrayOf(Object(map[string]*Schema{"probability": Number()})),
	}))

	data, err := json.Marshal(&def)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"probability"`)
	assert.Contains(t, string(data), `"number"`)
	require.NotNil(t, def.Properties["forecasts"].Items)
}

func TestPromptSuffix(t *testing.T) {
	suffix := facilitySchema().PromptSuffix()
	assert.Contains(t, suffix, `"type":"array"`)
	assert.Contains(t, suffix, "facilityName")
}

func TestNewClientProviders(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ctx := context.Background()

	_, err := NewClient(ctx, config.LLMConfig{Provider: "bogus"}, logger)
	assert.Error(t, err)

	_, err = NewClient(ctx, config.LLMConfig{Provider: "gemini"}, logger)
	assert.Error(t, err, "gemini requires an api key")

	c, err := NewClient(ctx, config.LLMConfig{Provider: "ollama", Model: "llama3"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = NewClient(ctx, config.LLMConfig{Provider: "Claude", APIKey: "k"}, logrus.New())
	require.NoError(t, err)
	assert.IsType(t, &ClaudeClient{}, c)
}

func TestMockLLMClientQueue(t *testing.T) {
	m := NewMockLLMClient("one", "two")
	m.Response = Response{Text: "fallback"}

	ctx := context.Background()
	r1, _ := m.Generate(ctx, Request{Prompt: "a"})
	r2, _ := m.Generate(ctx, Request{Prompt: "b"})
	r3, _ := m.Generate(ctx, Request{Prompt: "c"})

	assert.Equal(t, "one", r1.Text)
	assert.Equal(t, "two", r2.Text)
	assert.Equal(t, "fallback", r3.Text)
	assert.Len(t, m.Calls(), 3)
}
