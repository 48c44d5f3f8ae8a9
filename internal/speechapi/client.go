// Package speechapi is the HTTP client for the external speech-AI
// service: transcription (one-shot and chunked), translation,
// text-to-speech and speech-to-speech.
package speechapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// Config contains the API client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // 0 means 60s
}

// APIError is a non-2xx response from the speech service.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("speech api: status %d: %s", e.Status, e.Body)
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url cannot be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type TranscriptionResult struct {
	Language      string  `json:"language"`
	Transcription string  `json:"transcription"`
	Confidence    float64 `json:"confidence"`
}

type TranslationResult struct {
	OriginalText   string `json:"originalText"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	TranslatedText string `json:"translatedText"`
}

type SpeechToSpeechResult struct {
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	// SynthesizedAudio is decoded from the base64 field of the response.
	SynthesizedAudio []byte `json:"-"`
}

// UserStats is the upstream per-user usage summary.
type UserStats struct {
	TotalTranscriptions int    `json:"totalTranscriptions"`
	TotalTranslations   int    `json:"totalTranslations"`
	TotalTextToSpeech   int    `json:"totalTextToSpeech"`
	TotalSpeechToSpeech int    `json:"totalSpeechToSpeech"`
	MostUsedLanguage    string `json:"mostUsedLanguage"`
}

// Transcribe sends a complete recording for one-shot transcription.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename, language string) (*TranscriptionResult, error) {
	body, contentType, err := multipartBody(map[string]string{"language": language}, "audio", filename, audio)
	if err != nil {
		return nil, err
	}

	var out TranscriptionResult
	if err := c.post(ctx, "/transcribe", contentType, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TranscribeChunk uploads one streaming chunk and returns its text.
// Satisfies the streaming pipeline's ChunkTranscriber.
func (c *Client) TranscribeChunk(ctx context.Context, chunk []byte, language string) (string, error) {
	body, contentType, err := multipartBody(map[string]string{"language": language}, "audio_chunk", "chunk.wav", chunk)
	if err != nil {
		return "", err
	}

	var out struct {
		Transcription string `json:"transcription"`
	}
	if err := c.post(ctx, "/transcribe_stream", contentType, body, &out); err != nil {
		return "", err
	}
	return out.Transcription, nil
}

// Translate translates text between two languages.
func (c *Client) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (*TranslationResult, error) {
	payload, err := json.Marshal(map[string]string{
		"text":           text,
		"sourceLanguage": sourceLanguage,
		"targetLanguage": targetLanguage,
	})
	if err != nil {
		return nil, err
	}

	var out TranslationResult
	if err := c.post(ctx, "/translate", "application/json", bytes.NewReader(payload), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Synthesize converts text to speech and returns the raw audio bytes.
func (c *Client) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{
		"text":     text,
		"language": language,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/text-to-speech", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp)
	}
	// the TTS endpoint returns the audio file directly, not JSON
	return io.ReadAll(resp.Body)
}

// SpeechToSpeech sends spoken audio and returns the transcription,
// translation and synthesized speech in the target language.
func (c *Client) SpeechToSpeech(ctx context.Context, audio []byte, filename, sourceLanguage, targetLanguage string) (*SpeechToSpeechResult, error) {
	body, contentType, err := multipartBody(map[string]string{
		"sourceLanguage": sourceLanguage,
		"targetLanguage": targetLanguage,
	}, "audio", filename, audio)
	if err != nil {
		return nil, err
	}

	var raw struct {
		OriginalText     string `json:"originalText"`
		TranslatedText   string `json:"translatedText"`
		SourceLanguage   string `json:"sourceLanguage"`
		TargetLanguage   string `json:"targetLanguage"`
		SynthesizedAudio string `json:"synthesizedAudio"`
	}
	if err := c.post(ctx, "/speech-to-speech-translate", contentType, body, &raw); err != nil {
		return nil, err
	}

	out := &SpeechToSpeechResult{
		OriginalText:   raw.OriginalText,
		TranslatedText: raw.TranslatedText,
		SourceLanguage: raw.SourceLanguage,
		TargetLanguage: raw.TargetLanguage,
	}
	if raw.SynthesizedAudio != "" {
		decoded, err := base64.StdEncoding.DecodeString(raw.SynthesizedAudio)
		if err != nil {
			return nil, fmt.Errorf("decode synthesized audio: %w", err)
		}
		out.SynthesizedAudio = decoded
	}
	return out, nil
}

// ResetContext clears the upstream streaming transcription context.
func (c *Client) ResetContext(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/reset_context", nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return nil
}

// GetUserStats fetches the upstream usage summary.
func (c *Client) GetUserStats(ctx context.Context) (*UserStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/user-stats", nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp)
	}

	var out UserStats
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &APIError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}

func multipartBody(fields map[string]string, fileField, filename string, file []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile(fileField, filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(file); err != nil {
		return nil, "", err
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
