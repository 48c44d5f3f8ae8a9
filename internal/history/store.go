package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tinashem/speechai/internal/metrics"
)

// DefaultMaxBlobSize is the admission threshold for a single audio
// payload. Anything at or above it is stripped before writing so large
// audio never blocks saving the textual result.
const DefaultMaxBlobSize = 5 * 1024 * 1024

// StoreConfig configures the embedded store.
type StoreConfig struct {
	Path        string // sqlite database file
	MaxBlobSize int64  // bytes, 0 means DefaultMaxBlobSize
}

// Store is the durable history record store. Open is idempotent and
// every operation serializes through sqlite's transaction engine, so
// callers need no extra locking.
type Store struct {
	cfg     StoreConfig
	log     *logger.ZapLogger
	metrics *metrics.Metrics

	mu sync.Mutex
	db *sql.DB
}

func NewStore(cfg StoreConfig, log *logger.ZapLogger, m *metrics.Metrics) *Store {
	if cfg.MaxBlobSize <= 0 {
		cfg.MaxBlobSize = DefaultMaxBlobSize
	}
	return &Store{cfg: cfg, log: log, metrics: m}
}

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	item_type        TEXT NOT NULL,
	ts               INTEGER NOT NULL,
	payload          TEXT NOT NULL,
	audio            BLOB,
	original_audio   BLOB,
	translated_audio BLOB
);
CREATE INDEX IF NOT EXISTS idx_history_type      ON history(item_type);
CREATE INDEX IF NOT EXISTS idx_history_ts        ON history(ts);
CREATE INDEX IF NOT EXISTS idx_history_user      ON history(user_id);
CREATE INDEX IF NOT EXISTS idx_history_user_type ON history(user_id, item_type);
`

// Open initializes the database and its indexes. Safe to call
// repeatedly and concurrently; a no-op once initialized.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite3", s.cfg.Path+"?_busy_timeout=5000")
	if err != nil {
		return &StorageError{Op: "open", Err: err}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return &StorageError{Op: "open", Err: err}
	}

	s.db = db
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) handle(ctx context.Context) (*sql.DB, error) {
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db, nil
}

// AddHistoryItem stores one record and returns its id. Audio payloads
// at or above MaxBlobSize are dropped while the rest of the record is
// still written. If the write fails, exactly one retry is made with all
// audio stripped before the operation fails with a StorageError.
func (s *Store) AddHistoryItem(ctx context.Context, item Item) (string, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return "", &StorageError{Op: "add", Err: err}
	}

	audio, original, translated := blobsOf(item)
	audio = s.admit(item, "audio", audio)
	original = s.admit(item, "original audio", original)
	translated = s.admit(item, "translated audio", translated)

	m := item.meta()
	insert := func(a, o, t []byte) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO history (id, user_id, item_type, ts, payload, audio, original_audio, translated_audio)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, m.ID, m.UserID, string(item.Type()), m.Timestamp, string(payload), a, o, t)
		return err
	}

	if err := insert(audio, original, translated); err != nil {
		if s.log != nil {
			s.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: fmt.Sprintf("history write failed, retrying without audio: %v", err),
				Service: "history",
			})
		}
		// one retry with every binary payload stripped
		if err := insert(nil, nil, nil); err != nil {
			return "", &StorageError{Op: "add", Err: err}
		}
	}
	if s.metrics != nil {
		s.metrics.HistoryWrites.Inc()
	}
	return m.ID, nil
}

// admit applies the size threshold to one payload, returning nil when
// the payload must be dropped.
func (s *Store) admit(item Item, field string, blob []byte) []byte {
	if blob == nil || int64(len(blob)) < s.cfg.MaxBlobSize {
		return blob
	}
	if s.metrics != nil {
		s.metrics.HistoryStripped.Inc()
	}
	if s.log != nil {
		s.log.Log(logger.LogEntry{
			Level: "warn",
			Message: fmt.Sprintf("dropping %s (%s) from %s history item %s: over %s limit",
				field, humanize.IBytes(uint64(len(blob))), item.Type(), item.ItemID(),
				humanize.IBytes(uint64(s.cfg.MaxBlobSize))),
			Service: "history",
		})
	}
	return nil
}

// GetHistoryItems returns every record owned by userID, newest first.
// An empty itemType means all types; otherwise the combined
// (user, type) index serves the query.
func (s *Store) GetHistoryItems(ctx context.Context, userID string, itemType ItemType) ([]Item, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	var rows *sql.Rows
	if itemType != "" {
		rows, err = db.QueryContext(ctx, `
			SELECT id, user_id, item_type, ts, payload, audio, original_audio, translated_audio
			FROM history
			WHERE user_id = ? AND item_type = ?
			ORDER BY ts DESC
		`, userID, string(itemType))
	} else {
		rows, err = db.QueryContext(ctx, `
			SELECT id, user_id, item_type, ts, payload, audio, original_audio, translated_audio
			FROM history
			WHERE user_id = ?
			ORDER BY ts DESC
		`, userID)
	}
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, &StorageError{Op: "list", Err: err}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return items, nil
}

// GetHistoryItem returns one record by id, or ErrNotFound.
func (s *Store) GetHistoryItem(ctx context.Context, id string) (Item, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT id, user_id, item_type, ts, payload, audio, original_audio, translated_audio
		FROM history
		WHERE id = ?
	`, id)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	return item, nil
}

// DeleteHistoryItem removes one record. Deleting an unknown id is not
// an error.
func (s *Store) DeleteHistoryItem(ctx context.Context, id string) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}

// ClearHistory deletes every record owned by userID. Partial failures
// are aggregated: successfully deleted records stay deleted and the
// returned StorageError reports how many deletes failed.
func (s *Store) ClearHistory(ctx context.Context, userID string) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `SELECT id FROM history WHERE user_id = ?`, userID)
	if err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return &StorageError{Op: "clear", Err: err}
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}

	failed := 0
	var lastErr error
	for _, id := range ids {
		if _, err := db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id); err != nil {
			failed++
			lastErr = err
		}
	}
	if failed > 0 {
		return &StorageError{Op: "clear", Failed: failed, Err: lastErr}
	}
	return nil
}

func blobsOf(item Item) (audio, original, translated []byte) {
	switch v := item.(type) {
	case *Transcription:
		return v.Audio, nil, nil
	case *TranscriptionStream:
		return v.Audio, nil, nil
	case *Translation:
		return v.Audio, nil, nil
	case *TextToSpeech:
		return v.Audio, nil, nil
	case *SpeechToSpeech:
		return nil, v.OriginalAudio, v.TranslatedAudio
	}
	return nil, nil, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var (
		id, userID, itemType, payload string
		ts                            int64
		audio, original, translated   []byte
	)
	if err := row.Scan(&id, &userID, &itemType, &ts, &payload, &audio, &original, &translated); err != nil {
		return nil, err
	}

	meta := Meta{ID: id, UserID: userID, Timestamp: ts}
	switch ItemType(itemType) {
	case TypeTranscription:
		v := &Transcription{Meta: meta, Audio: audio}
		return v, json.Unmarshal([]byte(payload), v)
	case TypeTranscriptionStream:
		v := &TranscriptionStream{Meta: meta, Audio: audio}
		return v, json.Unmarshal([]byte(payload), v)
	case TypeTranslation:
		v := &Translation{Meta: meta, Audio: audio}
		return v, json.Unmarshal([]byte(payload), v)
	case TypeTextToSpeech:
		v := &TextToSpeech{Meta: meta, Audio: audio}
		return v, json.Unmarshal([]byte(payload), v)
	case TypeSpeechToSpeech:
		v := &SpeechToSpeech{Meta: meta, OriginalAudio: original, TranslatedAudio: translated}
		return v, json.Unmarshal([]byte(payload), v)
	}
	return nil, fmt.Errorf("unknown history item type %q", itemType)
}
