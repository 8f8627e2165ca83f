package llm

import (
	"context"

	"github.com/agenthands/meddesert/internal/core/model"
)

// Tool is a retrieval capability the model may use while answering.
type Tool string

const (
	ToolWebSearch Tool = "web_search"
	ToolMaps      Tool = "maps"
)

// Request is a single completion call. Model falls back to the client default when empty.
type Request struct {
	Model    string
	Prompt   string
	Schema   *Schema
	Tools    []Tool
	Location *model.LatLng
}

// Response is the model text plus any citations the provider returned for it.
type Response struct {
	Text      string
	Grounding []model.GroundingLink
}

type LLMClient interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

func (r Request) HasTool(tool Tool) bool {
	for _, t := range r.Tools {
		if t == tool {
			return true
		}
	}
	return false
}
