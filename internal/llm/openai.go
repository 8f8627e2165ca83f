package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// OpenAIClient serves both OpenAI and OpenAI-compatible endpoints such as Ollama.
// Retrieval tools are not available on this path and are ignored.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey string, model string, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)
	return &OpenAIClient{
		client: client,
		model:  model,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, req Request) (Response, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.model
	}

	prompt := req.Prompt
	chatReq := openai.ChatCompletionRequest{
		Model: modelID,
	}

	// Structured output must be an object at the top level; arrays go through the prompt.
	if req.Schema != nil {
		if req.Schema.Type == TypeObject {
			def := toJSONSchema(req.Schema)
			chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:   "response",
					Schema: &def,
				},
			}
		} else {
			prompt += req.Schema.PromptSuffix()
		}
	}

	chatReq.Messages = []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, err
	}
	if len(resp.Choices) > 0 {
		return Response{Text: resp.Choices[0].Message.Content}, nil
	}
	return Response{}, fmt.Errorf("no response choices")
}

func toJSONSchema(s *Schema) jsonschema.Definition {
	def := jsonschema.Definition{
		Description: s.Description,
		Enum:        s.Enum,
	}
	switch s.Type {
	case TypeString:
		def.Type = jsonschema.String
	case TypeNumber:
		def.Type = jsonschema.Number
	case TypeInteger:
		def.Type = jsonschema.Integer
	case TypeBoolean:
		def.Type = jsonschema.Boolean
	case TypeArray:
		def.Type = jsonschema.Array
	case TypeObject:
		def.Type = jsonschema.Object
	}
	if s.Items != nil {
		items := toJSONSchema(s.Items)
		def.Items = &items
	}
	if len(s.Properties) > 0 {
		def.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, p := range s.Properties {
			def.Properties[name] = toJSONSchema(p)
		}
	}
	return def
}
