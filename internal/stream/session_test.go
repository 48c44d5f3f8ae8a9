package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"go.uber.org/zap"
)

func testStreamLogger() *logger.ZapLogger {
	return logger.NewZapLogger(zap.NewNop().Sugar())
}

// settle gives the capture goroutine, which is blocked in Read, time to
// consume a frame the test just pushed.
func settle() { time.Sleep(20 * time.Millisecond) }

// fakeTranscriber maps chunk payloads to transcripts, with optional
// per-chunk latency to exercise ordering under skew.
type fakeTranscriber struct {
	mu        sync.Mutex
	responses map[string]string
	latency   map[string]time.Duration
	failing   map[string]error
	calls     []string
}

func newFakeTranscriber() *fakeTranscriber {
	return &fakeTranscriber{
		responses: make(map[string]string),
		latency:   make(map[string]time.Duration),
		failing:   make(map[string]error),
	}
}

func (f *fakeTranscriber) TranscribeChunk(ctx context.Context, audio []byte, language string) (string, error) {
	key := string(audio)
	f.mu.Lock()
	delay := f.latency[key]
	text := f.responses[key]
	err := f.failing[key]
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func newIdleSession(t *testing.T, api ChunkTranscriber) *Session {
	t.Helper()
	return NewSession(&fakeDevice{}, api, SessionConfig{
		Language: "english",
		Interval: 50 * time.Millisecond,
	}, SessionCallbacks{}, testStreamLogger())
}

func TestSessionFIFOSingleFlight(t *testing.T) {
	api := newFakeTranscriber()
	api.responses["c1"] = "first"
	api.responses["c2"] = "second"
	api.responses["c3"] = "third"
	// a later chunk answering faster must not jump the line
	api.latency["c1"] = 80 * time.Millisecond
	api.latency["c2"] = 5 * time.Millisecond

	var mu sync.Mutex
	var updates []string
	s := NewSession(&fakeDevice{}, api, SessionConfig{Language: "english", Interval: time.Hour},
		SessionCallbacks{OnTranscript: func(tr string) {
			mu.Lock()
			updates = append(updates, tr)
			mu.Unlock()
		}}, testStreamLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	s.enqueueChunk([]byte("c1"))
	s.enqueueChunk([]byte("c2"))
	s.enqueueChunk([]byte("c3"))

	waitUntil(t, func() bool { return s.Transcript() == "first second third" })

	mu.Lock()
	defer mu.Unlock()
	want := []string{"first", "first second", "first second third"}
	if len(updates) != len(want) {
		t.Fatalf("updates = %v, want %v", updates, want)
	}
	for i := range want {
		if updates[i] != want[i] {
			t.Errorf("update[%d] = %q, want %q", i, updates[i], want[i])
		}
	}
}

func TestSessionPunctuationJoinEndToEnd(t *testing.T) {
	api := newFakeTranscriber()
	api.responses["c1"] = "Hello"
	api.responses["c2"] = ","
	api.responses["c3"] = " world"

	var mu sync.Mutex
	var final string
	s := NewSession(&fakeDevice{}, api, SessionConfig{Language: "english", Interval: time.Hour},
		SessionCallbacks{OnComplete: func(tr string, audio []byte) {
			mu.Lock()
			final = tr
			mu.Unlock()
		}}, testStreamLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s.enqueueChunk([]byte("c1"))
	s.enqueueChunk([]byte("c2"))
	s.enqueueChunk([]byte("c3"))
	waitUntil(t, func() bool { return s.Transcript() == "Hello, world" })

	s.Stop()
	mu.Lock()
	defer mu.Unlock()
	if final != "Hello, world" {
		t.Errorf("final transcript = %q, want %q", final, "Hello, world")
	}
}

func TestSessionUploadFailureIsNonFatal(t *testing.T) {
	api := newFakeTranscriber()
	api.responses["good1"] = "alpha"
	api.failing["bad"] = errors.New("boom")
	api.responses["good2"] = "beta"

	var mu sync.Mutex
	var errs []error
	s := NewSession(&fakeDevice{}, api, SessionConfig{Language: "english", Interval: time.Hour},
		SessionCallbacks{OnError: func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}}, testStreamLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	s.enqueueChunk([]byte("good1"))
	s.enqueueChunk([]byte("bad"))
	s.enqueueChunk([]byte("good2"))

	waitUntil(t, func() bool { return s.Transcript() == "alpha beta" })

	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 1 {
		t.Fatalf("errors = %v, want one UploadError", errs)
	}
	var uerr *UploadError
	if !errors.As(errs[0], &uerr) {
		t.Errorf("got %T, want *UploadError", errs[0])
	}
}

func TestSessionEmptyResponsesContributeNothing(t *testing.T) {
	api := newFakeTranscriber()
	api.responses["c1"] = "hello"
	api.responses["c2"] = ""
	api.responses["c3"] = "   "
	api.responses["c4"] = "there"

	s := newIdleSession(t, api)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	for _, c := range []string{"c1", "c2", "c3", "c4"} {
		s.enqueueChunk([]byte(c))
	}
	waitUntil(t, func() bool { return s.Transcript() == "hello there" })
}

func TestSessionRotationProducesChunks(t *testing.T) {
	api := newFakeTranscriber()
	device := &fakeDevice{}
	s := NewSession(device, api, SessionConfig{Language: "english", Interval: time.Hour},
		SessionCallbacks{}, testStreamLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	stream := device.last()
	stream.frames <- []byte("seg1")
	settle()

	// force a rotation instead of waiting out the wall-clock interval
	s.rotate(context.Background(), s.recorder)

	waitUntil(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.audio) == 1
	})
	if got := device.last(); got == stream {
		t.Error("rotation should open a fresh capture stream")
	}
	if !stream.Closed() {
		t.Error("rotated-out stream not released")
	}
}

func TestSessionPauseFlushesInFlightChunk(t *testing.T) {
	api := newFakeTranscriber()
	api.responses["seg"] = "captured"
	device := &fakeDevice{}

	s := NewSession(device, api, SessionConfig{Language: "english", Interval: time.Hour},
		SessionCallbacks{}, testStreamLogger())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	device.last().frames <- []byte("seg")
	settle()

	s.Pause()
	// the chunk captured before the pause still flows through the queue
	waitUntil(t, func() bool { return s.Transcript() == "captured" })

	s.Resume()
	if !s.Active() {
		t.Error("session should be active after Resume")
	}
}

func TestSessionStopIsSafeWhenIdle(t *testing.T) {
	s := newIdleSession(t, newFakeTranscriber())
	s.Stop() // must not panic or block
	s.Reset()
	if s.Active() {
		t.Error("session should be idle")
	}
}

func TestSessionStartResetsState(t *testing.T) {
	api := newFakeTranscriber()
	api.responses["c1"] = "one"
	s := NewSession(&fakeDevice{}, api, SessionConfig{Language: "english", Interval: time.Hour},
		SessionCallbacks{}, testStreamLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.enqueueChunk([]byte("c1"))
	waitUntil(t, func() bool { return s.Transcript() == "one" })
	s.Stop()

	// a fresh session starts from an empty transcript
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer s.Stop()
	if s.Transcript() != "" {
		t.Errorf("transcript = %q after restart, want empty", s.Transcript())
	}
}
