package domain

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/tinashem/speechai/internal/history"
	"github.com/tinashem/speechai/internal/notify"
	"github.com/tinashem/speechai/internal/ports"
)

// ArchiveService exports a history item's audio to the S3 bucket so
// users can share a durable link. Items whose audio was stripped on
// admission have nothing to export.
type ArchiveService struct {
	client   ports.S3Client
	store    *history.Store
	notifier notify.Notifier
}

func NewArchiveService(client ports.S3Client, store *history.Store, n notify.Notifier) *ArchiveService {
	return &ArchiveService{
		client:   client,
		store:    store,
		notifier: n,
	}
}

func (s *ArchiveService) objectKey(userID, itemID string) string {
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s/%s/%s.audio", userID, date, itemID)
}

// Export uploads the item's primary audio and returns the public URL.
// An item owned by someone else is reported as not found.
func (s *ArchiveService) Export(ctx context.Context, userID, itemID string) (string, error) {
	item, err := s.store.GetHistoryItem(ctx, itemID)
	if err != nil {
		return "", err
	}
	if item.Owner() != userID {
		return "", history.ErrNotFound
	}

	audio := primaryAudio(item)
	if len(audio) == 0 {
		return "", fmt.Errorf("item %s has no audio to export", itemID)
	}

	key := s.objectKey(item.Owner(), item.ItemID())
	url, err := s.client.PutObject(ctx, key, bytes.NewReader(audio), int64(len(audio)), "application/octet-stream")
	if err != nil {
		s.notifier.Notify(ctx, err, fmt.Sprintf("failed to export audio: item=%s", itemID))
		return "", err
	}
	return url, nil
}

func primaryAudio(item history.Item) []byte {
	switch v := item.(type) {
	case *history.Transcription:
		return v.Audio
	case *history.TranscriptionStream:
		return v.Audio
	case *history.Translation:
		return v.Audio
	case *history.TextToSpeech:
		return v.Audio
	case *history.SpeechToSpeech:
		if len(v.TranslatedAudio) > 0 {
			return v.TranslatedAudio
		}
		return v.OriginalAudio
	default:
		return nil
	}
}
