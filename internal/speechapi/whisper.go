package speechapi

import (
	"bytes"
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tinashem/speechai/internal/langs"
)

// WhisperTranscriber transcribes streaming chunks with OpenAI Whisper.
// Used as the fallback when the speech service is not configured.
type WhisperTranscriber struct {
	client *openai.Client
}

func NewWhisperTranscriber(apiKey string) *WhisperTranscriber {
	return &WhisperTranscriber{client: openai.NewClient(apiKey)}
}

func (w *WhisperTranscriber) TranscribeChunk(ctx context.Context, chunk []byte, language string) (string, error) {
	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "chunk.wav",
		Reader:   bytes.NewReader(chunk),
	}
	// Whisper wants an ISO code, autodetect is expressed by omitting it
	if code := langs.Code(language); code != "" && code != langs.Auto {
		req.Language = code
	}

	resp, err := w.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
