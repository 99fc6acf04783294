package llm

import (
	"encoding/json"

	"github.com/openai/openai-go"

	"github.com/ndemidenko/habitbot/internal/domain"
)

const systemPrompt = "You are a bot that extracts user habits from their daily description. " +
	"Extract the following habits and provide the output in JSON format. " +
	"Ensure that the 'diary' field is matching the input description fully, but fix typos and punctuation."

// buildMessages assembles the chat transcript for one extraction call.
// During a correction round the previous raw input and extracted record
// precede the correction, so the model edits rather than restarts.
func buildMessages(text string, prior *domain.ExtractionContext) []openai.ChatCompletionMessageParamUnion {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
	}
	if prior != nil {
		previous, _ := json.Marshal(prior.Extracted)
		messages = append(messages,
			openai.UserMessage(prior.RawInput),
			openai.AssistantMessage(string(previous)),
		)
	}
	return append(messages, openai.UserMessage(text))
}
