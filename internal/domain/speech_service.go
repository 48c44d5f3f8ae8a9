package domain

import (
	"context"
	"fmt"

	"github.com/tinashem/speechai/internal/history"
	"github.com/tinashem/speechai/internal/identity"
	"github.com/tinashem/speechai/internal/notify"
	"github.com/tinashem/speechai/internal/ports"
	"github.com/tinashem/speechai/internal/speechapi"
)

// SpeechAPI is the slice of the upstream client the service needs.
type SpeechAPI interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) (*speechapi.TranscriptionResult, error)
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (*speechapi.TranslationResult, error)
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
	SpeechToSpeech(ctx context.Context, audio []byte, filename, sourceLanguage, targetLanguage string) (*speechapi.SpeechToSpeechResult, error)
	ResetContext(ctx context.Context) error
	GetUserStats(ctx context.Context) (*speechapi.UserStats, error)
}

// SpeechService runs the speech features end to end: call the upstream
// API, persist the result to the caller's history, track usage. History
// and usage writes are best-effort, a failed save never fails the
// feature. Anonymous callers get the feature but no history row.
type SpeechService struct {
	api      SpeechAPI
	store    *history.Store
	usage    ports.UsageRepo
	notifier notify.Notifier
}

func NewSpeechService(api SpeechAPI, store *history.Store, usage ports.UsageRepo, n notify.Notifier) *SpeechService {
	return &SpeechService{
		api:      api,
		store:    store,
		usage:    usage,
		notifier: n,
	}
}

func (s *SpeechService) Transcribe(ctx context.Context, userID string, audio []byte, filename, language string) (*speechapi.TranscriptionResult, error) {
	res, err := s.api.Transcribe(ctx, audio, filename, language)
	if err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("transcription failed: user=%s lang=%s", userID, language))
		return nil, err
	}

	s.saveItem(ctx, userID, &history.Transcription{
		Language: res.Language,
		Text:     res.Transcription,
		Audio:    audio,
	})
	s.trackUsage(userID, "transcription", language, int64(len(audio)))
	return res, nil
}

func (s *SpeechService) Translate(ctx context.Context, userID, text, sourceLanguage, targetLanguage string) (*speechapi.TranslationResult, error) {
	res, err := s.api.Translate(ctx, text, sourceLanguage, targetLanguage)
	if err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("translation failed: user=%s %s→%s", userID, sourceLanguage, targetLanguage))
		return nil, err
	}

	s.saveItem(ctx, userID, &history.Translation{
		SourceLanguage: res.SourceLanguage,
		TargetLanguage: res.TargetLanguage,
		OriginalText:   res.OriginalText,
		TranslatedText: res.TranslatedText,
	})
	s.trackUsage(userID, "translation", targetLanguage, 0)
	return res, nil
}

func (s *SpeechService) TextToSpeech(ctx context.Context, userID, text, language string) ([]byte, error) {
	audio, err := s.api.Synthesize(ctx, text, language)
	if err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("synthesis failed: user=%s lang=%s", userID, language))
		return nil, err
	}

	s.saveItem(ctx, userID, &history.TextToSpeech{
		Language: language,
		Text:     text,
		Audio:    audio,
	})
	s.trackUsage(userID, "textToSpeech", language, int64(len(audio)))
	return audio, nil
}

func (s *SpeechService) SpeechToSpeech(ctx context.Context, userID string, audio []byte, filename, sourceLanguage, targetLanguage string) (*speechapi.SpeechToSpeechResult, error) {
	res, err := s.api.SpeechToSpeech(ctx, audio, filename, sourceLanguage, targetLanguage)
	if err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("speech-to-speech failed: user=%s %s→%s", userID, sourceLanguage, targetLanguage))
		return nil, err
	}

	s.saveItem(ctx, userID, &history.SpeechToSpeech{
		OriginalLanguage:   res.SourceLanguage,
		TranslatedLanguage: res.TargetLanguage,
		OriginalText:       res.OriginalText,
		TranslatedText:     res.TranslatedText,
		OriginalAudio:      audio,
		TranslatedAudio:    res.SynthesizedAudio,
	})
	s.trackUsage(userID, "speechToSpeech", targetLanguage, int64(len(audio)))
	return res, nil
}

// SaveStreamResult persists a finished streaming session: the assembled
// transcript and the concatenated chunk audio.
func (s *SpeechService) SaveStreamResult(ctx context.Context, userID, language, transcript string, audio []byte) (string, error) {
	if userID == "" || userID == identity.AnonymousUID {
		return "", history.ErrNotSignedIn
	}
	item := &history.TranscriptionStream{
		Language: language,
		Text:     transcript,
		Audio:    audio,
	}
	history.Stamp(item, userID)
	id, err := s.store.AddHistoryItem(ctx, item)
	if err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("failed to save stream transcript: user=%s", userID))
		return "", err
	}
	s.trackUsage(userID, "transcription", language, int64(len(audio)))
	return id, nil
}

func (s *SpeechService) ResetContext(ctx context.Context) error {
	return s.api.ResetContext(ctx)
}

// Stats reads usage aggregates from the local repo, falling back to the
// upstream service's own counters when the repo is missing or fails.
func (s *SpeechService) Stats(ctx context.Context, userID string) (*ports.UserStats, error) {
	if s.usage != nil {
		stats, err := s.usage.StatsByUser(ctx, userID)
		if err == nil {
			return stats, nil
		}
	}
	remote, err := s.api.GetUserStats(ctx)
	if err != nil {
		return nil, err
	}
	return &ports.UserStats{
		UserID:              userID,
		TotalTranscriptions: remote.TotalTranscriptions,
		TotalTranslations:   remote.TotalTranslations,
		TotalTextToSpeech:   remote.TotalTextToSpeech,
		TotalSpeechToSpeech: remote.TotalSpeechToSpeech,
		MostUsedLanguage:    remote.MostUsedLanguage,
	}, nil
}

func (s *SpeechService) saveItem(ctx context.Context, userID string, item history.Item) {
	if s.store == nil || userID == "" || userID == identity.AnonymousUID {
		return
	}
	history.Stamp(item, userID)
	if _, err := s.store.AddHistoryItem(ctx, item); err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("failed to save history item: user=%s", userID))
	}
}

func (s *SpeechService) trackUsage(userID, operation, language string, audioSize int64) {
	if s.usage == nil {
		return
	}
	go func() {
		_ = s.usage.Record(context.Background(), &ports.APIUsage{
			UserID:    userID,
			Operation: operation,
			Language:  language,
			AudioSize: audioSize,
		})
	}()
}
