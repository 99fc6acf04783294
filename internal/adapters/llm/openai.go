package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ndemidenko/habitbot/internal/domain"
	"github.com/ndemidenko/habitbot/internal/observability"
)

const extractToolName = "extract_habits"

// OpenAIExtractor turns free text into a structured habit record by
// forcing a single function call whose parameters are the compiled
// habit schema.
type OpenAIExtractor struct {
	client openai.Client
	model  string
}

func NewOpenAIExtractor(apiKey, model string) *OpenAIExtractor {
	return &OpenAIExtractor{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (e *OpenAIExtractor) Extract(ctx context.Context, text string, schema domain.HabitSchema, prior *domain.ExtractionContext) (map[string]any, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(e.model),
		Messages: buildMessages(text, prior),
		Tools: []openai.ChatCompletionToolParam{{
			Function: openai.FunctionDefinitionParam{
				Name:       extractToolName,
				Parameters: toolParameters(schema),
			},
		}},
		ToolChoice: openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: extractToolName,
				},
			},
		},
	}

	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &domain.AdapterError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return nil, &domain.AdapterError{Op: "chat completion", Err: fmt.Errorf("no tool call in response")}
	}

	arguments := resp.Choices[0].Message.ToolCalls[0].Function.Arguments
	var fields map[string]any
	if err := json.Unmarshal([]byte(arguments), &fields); err != nil {
		return nil, &domain.AdapterError{Op: "decode tool arguments", Err: err}
	}

	observability.LoggerFromContext(ctx).Info("habits extracted",
		"model", e.model, "fields", len(fields))
	return fields, nil
}

func toolParameters(schema domain.HabitSchema) openai.FunctionParameters {
	properties := make(map[string]any, len(schema.Properties))
	for name, prop := range schema.Properties {
		properties[name] = prop
	}
	return openai.FunctionParameters{
		"type":       "object",
		"properties": properties,
		"required":   schema.Required,
	}
}
