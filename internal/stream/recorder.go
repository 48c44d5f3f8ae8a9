// Package stream implements live transcription: a recorder capturing
// bounded audio chunks, a FIFO queue drained by a single-flight worker,
// and punctuation-aware transcript assembly.
package stream

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// Device is the capture source. Open returns the live audio stream;
// closing it releases the underlying device.
type Device interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// RecorderCallbacks are the recorder's observer hooks. All are optional.
type RecorderCallbacks struct {
	// OnData fires for each captured segment as it becomes available.
	OnData func(segment []byte)
	// OnStop fires once per recording with the concatenation of all
	// captured segments. Not called when nothing was captured.
	OnStop func(audio []byte)
	// OnError receives RecordingError values. The recorder returns to
	// idle after an error.
	OnError func(err error)
}

const readFrameSize = 4096

// Recorder captures audio from a Device into discrete segments.
// States: idle -> recording -> idle; device failure also lands in idle.
// Pause does not exist at this layer; callers pause via stop+restart.
type Recorder struct {
	device    Device
	callbacks RecorderCallbacks

	mu        sync.Mutex
	recording bool
	stream    io.ReadCloser
	segments  [][]byte
	done      chan struct{}
}

func NewRecorder(device Device, callbacks RecorderCallbacks) *Recorder {
	return &Recorder{device: device, callbacks: callbacks}
}

// Start opens the device and begins capturing. Calling Start while
// already recording is a no-op. Failure to open the device is surfaced
// through OnError (and returned for callers that want it).
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return nil
	}

	stream, err := r.device.Open(ctx)
	if err != nil {
		r.mu.Unlock()
		rerr := &RecordingError{Reason: "device unavailable", Err: err}
		r.emitError(rerr)
		return rerr
	}

	r.recording = true
	r.stream = stream
	r.segments = nil
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go r.capture(stream, done)
	return nil
}

func (r *Recorder) capture(stream io.ReadCloser, done chan struct{}) {
	defer close(done)
	buf := make([]byte, readFrameSize)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			segment := make([]byte, n)
			copy(segment, buf[:n])
			r.mu.Lock()
			r.segments = append(r.segments, segment)
			r.mu.Unlock()
			if r.callbacks.OnData != nil {
				r.callbacks.OnData(segment)
			}
		}
		if err != nil {
			r.mu.Lock()
			stopped := !r.recording
			r.mu.Unlock()
			if err != io.EOF && !stopped {
				// stream broke mid-recording
				r.teardown()
				r.emitError(&RecordingError{Reason: "capture stream failed", Err: err})
			}
			return
		}
	}
}

// Stop finalizes the current recording. If any audio was captured, the
// assembled waveform is delivered through OnStop. The device stream is
// released on every path.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return
	}
	r.recording = false
	stream := r.stream
	r.stream = nil
	done := r.done
	r.mu.Unlock()

	// closing unblocks the capture loop
	if stream != nil {
		stream.Close()
	}
	if done != nil {
		<-done
	}

	r.mu.Lock()
	segments := r.segments
	r.segments = nil
	r.mu.Unlock()

	if len(segments) > 0 && r.callbacks.OnStop != nil {
		r.callbacks.OnStop(bytes.Join(segments, nil))
	}
}

// IsRecording reflects the current state.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// teardown releases the stream after a capture failure.
func (r *Recorder) teardown() {
	r.mu.Lock()
	r.recording = false
	stream := r.stream
	r.stream = nil
	r.segments = nil
	r.mu.Unlock()
	if stream != nil {
		stream.Close()
	}
}

func (r *Recorder) emitError(err error) {
	if r.callbacks.OnError != nil {
		r.callbacks.OnError(err)
	}
}
