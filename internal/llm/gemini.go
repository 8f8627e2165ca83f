package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/agenthands/meddesert/internal/core/model"
)

// GeminiClient talks to the Gemini API and is the only provider with search and maps grounding.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey string, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, req Request) (Response, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.model
	}

	resp, err := c.client.Models.GenerateContent(ctx, modelID, genai.Text(req.Prompt), geminiConfig(req))
	if err != nil {
		return Response{}, err
	}
	if len(resp.Candidates) == 0 {
		return Response{}, fmt.Errorf("no response candidates or content")
	}

	return Response{
		Text:      resp.Text(),
		Grounding: geminiGrounding(resp.Candidates[0].GroundingMetadata),
	}, nil
}

func geminiConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}

	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toGeminiSchema(req.Schema)
	}

	for _, t := range req.Tools {
		switch t {
		case ToolWebSearch:
			cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleSearch: &genai.GoogleSearch{}})
		case ToolMaps:
			cfg.Tools = append(cfg.Tools, &genai.Tool{GoogleMaps: &genai.GoogleMaps{}})
		}
	}

	if req.Location != nil && req.HasTool(ToolMaps) {
		cfg.ToolConfig = &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{
					Latitude:  genai.Ptr(req.Location.Lat),
					Longitude: genai.Ptr(req.Location.Lng),
				},
			},
		}
	}

	return cfg
}

func toGeminiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Enum:        s.Enum,
		Items:       toGeminiSchema(s.Items),
	}
	switch s.Type {
	case TypeString:
		out.Type = genai.TypeString
	case TypeNumber:
		out.Type = genai.TypeNumber
	case TypeInteger:
		out.Type = genai.TypeInteger
	case TypeBoolean:
		out.Type = genai.TypeBoolean
	case TypeArray:
		out.Type = genai.TypeArray
	case TypeObject:
		out.Type = genai.TypeObject
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toGeminiSchema(p)
		}
	}
	return out
}

func geminiGrounding(gm *genai.GroundingMetadata) []model.GroundingLink {
	if gm == nil {
		return nil
	}
	var links []model.GroundingLink
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil {
			continue
		}
		if chunk.Web != nil && chunk.Web.URI != "" {
			links = append(links, model.GroundingLink{URI: chunk.Web.URI, Title: chunk.Web.Title, Source: "web"})
		}
		if chunk.Maps != nil && chunk.Maps.URI != "" {
			links = append(links, model.GroundingLink{URI: chunk.Maps.URI, Title: chunk.Maps.Title, Source: "maps"})
		}
	}
	return links
}
