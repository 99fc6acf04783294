package speech

import (
	"bytes"
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ndemidenko/habitbot/internal/domain"
	"github.com/ndemidenko/habitbot/internal/observability"
)

// FileFetcher downloads the audio bytes behind a voice reference. The
// chat transport implements it, since voice files live on its servers.
type FileFetcher interface {
	FetchVoice(ctx context.Context, voice domain.VoiceRef) ([]byte, error)
}

// WhisperTranscriber resolves voice messages to text via the Whisper
// transcription endpoint.
type WhisperTranscriber struct {
	client  openai.Client
	fetcher FileFetcher
}

func NewWhisperTranscriber(apiKey string, fetcher FileFetcher) *WhisperTranscriber {
	return &WhisperTranscriber{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		fetcher: fetcher,
	}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, voice domain.VoiceRef) (string, error) {
	audio, err := t.fetcher.FetchVoice(ctx, voice)
	if err != nil {
		return "", &domain.AdapterError{Op: "fetch voice file", Err: err}
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  openai.File(bytes.NewReader(audio), "voice.ogg", "audio/ogg"),
	})
	if err != nil {
		return "", &domain.AdapterError{Op: "transcribe audio", Err: err}
	}

	observability.LoggerFromContext(ctx).Info("voice transcribed",
		"file_id", voice.FileID, "chars", len(resp.Text))
	return resp.Text, nil
}
