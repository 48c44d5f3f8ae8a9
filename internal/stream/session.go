package stream

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
)

// ChunkTranscriber uploads one audio chunk and returns its transcript.
type ChunkTranscriber interface {
	TranscribeChunk(ctx context.Context, audio []byte, language string) (string, error)
}

// Chunk is one queued recording segment awaiting upload.
type Chunk struct {
	Audio      []byte
	EnqueuedAt time.Time
}

// DefaultChunkInterval is how often the recorder is rotated to produce
// bounded-duration chunks.
const DefaultChunkInterval = 5 * time.Second

// SessionConfig configures a streaming transcription session.
type SessionConfig struct {
	Language string
	Interval time.Duration // 0 means DefaultChunkInterval
}

// SessionCallbacks are the session's notification hooks. All optional.
type SessionCallbacks struct {
	// OnTranscript receives the full running transcript after every
	// chunk that contributed text.
	OnTranscript func(transcript string)
	// OnError receives RecordingError and UploadError values. Upload
	// errors are non-fatal; the session keeps going.
	OnError func(err error)
	// OnComplete fires on Stop when the transcript is non-empty, with
	// the final transcript and the full session audio.
	OnComplete func(transcript string, audio []byte)
}

type sessionState int

const (
	stateIdle sessionState = iota
	stateRunning
	statePaused
)

// Session converts a live capture into an incrementally-growing
// transcript. The recorder is rotated on a fixed interval; completed
// chunks go through a FIFO queue drained by one worker goroutine, so at
// most one upload is in flight and transcript order matches capture
// order even when a later chunk's upload finishes faster.
type Session struct {
	cfg       SessionConfig
	device    Device
	api       ChunkTranscriber
	log       *logger.ZapLogger
	callbacks SessionCallbacks

	queue *Queue[Chunk]
	wake  chan struct{}

	mu         sync.Mutex
	state      sessionState
	recorder   *Recorder
	runCtx     context.Context
	cancel     context.CancelFunc
	transcript Transcript
	audio      [][]byte
	startedAt  time.Time
	elapsed    time.Duration
}

func NewSession(device Device, api ChunkTranscriber, cfg SessionConfig, callbacks SessionCallbacks, log *logger.ZapLogger) *Session {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultChunkInterval
	}
	return &Session{
		cfg:       cfg,
		device:    device,
		api:       api,
		log:       log,
		callbacks: callbacks,
		queue:     NewQueue[Chunk](),
		wake:      make(chan struct{}, 1),
	}
}

// Start begins a streaming session. A no-op when one is already active.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != stateIdle {
		s.mu.Unlock()
		return nil
	}

	s.transcript.Reset()
	s.audio = nil
	s.queue.Clear()
	s.elapsed = 0
	s.startedAt = time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	s.runCtx = runCtx
	s.cancel = cancel
	s.state = stateRunning

	rec := NewRecorder(s.device, RecorderCallbacks{
		OnStop:  s.enqueueChunk,
		OnError: s.handleRecordingError,
	})
	s.recorder = rec
	s.mu.Unlock()

	if err := rec.Start(runCtx); err != nil {
		s.mu.Lock()
		s.state = stateIdle
		s.mu.Unlock()
		cancel()
		return err
	}

	go s.runWorker(runCtx)
	go s.runTicker(runCtx, rec)
	return nil
}

// Pause stops the recorder without ending the session. The chunk being
// captured at pause time is flushed through the queue, not dropped.
func (s *Session) Pause() {
	s.mu.Lock()
	if s.state != stateRunning {
		s.mu.Unlock()
		return
	}
	s.state = statePaused
	s.elapsed += time.Since(s.startedAt)
	rec := s.recorder
	s.mu.Unlock()

	rec.Stop()
}

// Resume restarts recording after a Pause.
func (s *Session) Resume() {
	s.mu.Lock()
	if s.state != statePaused {
		s.mu.Unlock()
		return
	}
	s.state = stateRunning
	s.startedAt = time.Now()
	rec := s.recorder
	ctx := s.runCtx
	s.mu.Unlock()

	rec.Start(ctx)
}

// Stop tears the session down. Safe to call in any state, including
// mid-chunk and mid-upload; an upload still in flight is discarded.
// When the accumulated transcript is non-empty, OnComplete fires with
// the transcript and the full session audio.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == stateIdle {
		s.mu.Unlock()
		return
	}
	if s.state == stateRunning {
		s.elapsed += time.Since(s.startedAt)
	}
	s.state = stateIdle
	rec := s.recorder
	cancel := s.cancel
	s.mu.Unlock()

	if rec != nil {
		rec.Stop()
	}
	if cancel != nil {
		cancel()
	}

	s.mu.Lock()
	final := s.transcript.String()
	audio := bytes.Join(s.audio, nil)
	s.mu.Unlock()

	if final != "" && s.callbacks.OnComplete != nil {
		s.callbacks.OnComplete(final, audio)
	}
}

// Reset clears the accumulated transcript and audio of a stopped
// session. A no-op while a session is active.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateIdle {
		return
	}
	s.transcript.Reset()
	s.audio = nil
	s.queue.Clear()
	s.elapsed = 0
}

// Transcript returns the transcript accumulated so far.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.String()
}

// Elapsed returns the time spent actually recording (pauses excluded).
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateRunning {
		return s.elapsed + time.Since(s.startedAt)
	}
	return s.elapsed
}

// Active reports whether a session is running or paused.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != stateIdle
}

func (s *Session) enqueueChunk(audio []byte) {
	s.mu.Lock()
	s.audio = append(s.audio, audio)
	s.mu.Unlock()

	s.queue.Enqueue(Chunk{Audio: audio, EnqueuedAt: time.Now()})
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) handleRecordingError(err error) {
	if s.callbacks.OnError != nil {
		s.callbacks.OnError(err)
	}
	s.Stop()
}

// runTicker rotates the recorder every interval so the session produces
// a sequence of bounded chunks instead of one unbounded recording.
func (s *Session) runTicker(ctx context.Context, rec *Recorder) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rotate(ctx, rec)
		}
	}
}

func (s *Session) rotate(ctx context.Context, rec *Recorder) {
	s.mu.Lock()
	running := s.state == stateRunning
	s.mu.Unlock()
	if !running || !rec.IsRecording() {
		return
	}
	rec.Stop()
	rec.Start(ctx)
}

// runWorker is the queue's single consumer: it uploads one chunk at a
// time in FIFO order and appends each response to the transcript.
func (s *Session) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		for {
			chunk, ok := s.queue.Dequeue()
			if !ok {
				break
			}

			text, err := s.api.TranscribeChunk(ctx, chunk.Audio, s.cfg.Language)
			if ctx.Err() != nil {
				// session torn down; discard the result
				return
			}
			if err != nil {
				if s.log != nil {
					s.log.Log(logger.LogEntry{
						Level:   "error",
						Message: fmt.Sprintf("chunk transcription failed: %v", err),
						Service: "stream",
						Error:   err,
					})
				}
				if s.callbacks.OnError != nil {
					s.callbacks.OnError(&UploadError{Err: err})
				}
				continue
			}

			s.mu.Lock()
			before := s.transcript.String()
			s.transcript.Append(text)
			full := s.transcript.String()
			s.mu.Unlock()

			if full != before && s.callbacks.OnTranscript != nil {
				s.callbacks.OnTranscript(full)
			}
		}
	}
}
