package stream

import "fmt"

// RecordingError reports a capture failure: device unavailable, access
// denied, or a broken stream mid-recording. It is delivered through the
// error callback; the session stays alive in the idle state.
type RecordingError struct {
	Reason string
	Err    error
}

func (e *RecordingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recording: %s: %v", e.Reason, e.Err)
	}
	return "recording: " + e.Reason
}

func (e *RecordingError) Unwrap() error { return e.Err }

// UploadError reports a failed chunk upload. Non-fatal: the worker
// moves on to the next queued chunk.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("chunk upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
