// Package history is the persisted, per-user store of completed feature
// results (transcription, translation, text-to-speech, speech-to-speech),
// backed by an embedded sqlite database, plus the identity-bound Feed the
// UI reads through.
package history

import (
	"time"

	"github.com/google/uuid"
)

// ItemType discriminates the stored record variants.
type ItemType string

const (
	TypeTranscription       ItemType = "transcription"
	TypeTranscriptionStream ItemType = "transcription_stream"
	TypeTranslation         ItemType = "translation"
	TypeTextToSpeech        ItemType = "textToSpeech"
	TypeSpeechToSpeech      ItemType = "speechToSpeech"
)

// Meta holds the fields common to every history item. Timestamp is
// milliseconds since epoch. Items are immutable once stored.
type Meta struct {
	ID        string `json:"-"`
	UserID    string `json:"-"`
	Timestamp int64  `json:"-"`
}

func (m *Meta) ItemID() string   { return m.ID }
func (m *Meta) Owner() string    { return m.UserID }
func (m *Meta) CreatedAt() int64 { return m.Timestamp }
func (m *Meta) meta() *Meta      { return m }
func (m *Meta) isHistoryItem()   {}

// Stamp assigns ownership and a fresh identity to an item about to be
// stored. Fields already set by the caller are overwritten.
func Stamp(item Item, userID string) {
	m := item.meta()
	m.ID = uuid.NewString()
	m.UserID = userID
	m.Timestamp = time.Now().UnixMilli()
}

// Item is the closed set of history record variants.
type Item interface {
	ItemID() string
	Owner() string
	CreatedAt() int64
	Type() ItemType

	meta() *Meta
	isHistoryItem()
}

// Transcription is a one-shot transcription result.
type Transcription struct {
	Meta
	Language string `json:"language"`
	Text     string `json:"transcription"`
	Audio    []byte `json:"-"`
}

func (*Transcription) Type() ItemType { return TypeTranscription }

// TranscriptionStream is a transcript assembled by the streaming pipeline.
type TranscriptionStream struct {
	Meta
	Language string `json:"language"`
	Text     string `json:"transcription"`
	Audio    []byte `json:"-"`
}

func (*TranscriptionStream) Type() ItemType { return TypeTranscriptionStream }

// Translation is a text translation result, optionally with spoken audio.
type Translation struct {
	Meta
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	Audio          []byte `json:"-"`
}

func (*Translation) Type() ItemType { return TypeTranslation }

// TextToSpeech is a synthesis result. Audio is what makes the record
// meaningful, but admission control may still strip it to keep the text.
type TextToSpeech struct {
	Meta
	Language string `json:"language"`
	Text     string `json:"text"`
	Audio    []byte `json:"-"`
}

func (*TextToSpeech) Type() ItemType { return TypeTextToSpeech }

// SpeechToSpeech carries both sides of a spoken translation.
type SpeechToSpeech struct {
	Meta
	OriginalLanguage   string `json:"originalLanguage"`
	TranslatedLanguage string `json:"translatedLanguage"`
	OriginalText       string `json:"originalText"`
	TranslatedText     string `json:"translatedText"`
	OriginalAudio      []byte `json:"-"`
	TranslatedAudio    []byte `json:"-"`
}

func (*SpeechToSpeech) Type() ItemType { return TypeSpeechToSpeech }
