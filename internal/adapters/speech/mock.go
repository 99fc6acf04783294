package speech

import (
	"context"

	"github.com/ndemidenko/habitbot/internal/domain"
)

// MockTranscriber echoes a fixed phrase, for local runs without an API
// key.
type MockTranscriber struct{}

func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

func (MockTranscriber) Transcribe(_ context.Context, voice domain.VoiceRef) (string, error) {
	return "voice message " + voice.FileID, nil
}
