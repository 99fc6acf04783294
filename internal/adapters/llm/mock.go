package llm

import (
	"context"

	"github.com/ndemidenko/habitbot/internal/domain"
)

// MockExtractor is a deterministic stand-in for local runs without an
// API key. It fills every schema property with a placeholder derived
// from the input text, and keeps prior values during a correction
// round.
type MockExtractor struct{}

func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

func (m *MockExtractor) Extract(_ context.Context, text string, schema domain.HabitSchema, prior *domain.ExtractionContext) (map[string]any, error) {
	fields := make(map[string]any, len(schema.Properties))
	if prior != nil {
		for name, value := range prior.Extracted {
			fields[name] = value
		}
	}
	for name, prop := range schema.Properties {
		if _, ok := fields[name]; ok {
			continue
		}
		fields[name] = placeholder(prop, text)
	}
	return fields, nil
}

func placeholder(prop map[string]any, text string) any {
	switch t := prop["type"].(type) {
	case string:
		return placeholderFor(t, text)
	case []string:
		if len(t) > 0 {
			return placeholderFor(t[0], text)
		}
	}
	return text
}

func placeholderFor(typ, text string) any {
	switch typ {
	case "number", "integer":
		return 0
	case "boolean":
		return false
	case "array":
		return []any{}
	case "object":
		return map[string]any{}
	case "null":
		return nil
	default:
		return text
	}
}
