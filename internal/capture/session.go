package capture

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

// Severity classifies a user-facing notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a transient, auto-dismissing user message.
type Notification struct {
	Severity Severity
	Summary  string
	Detail   string
}

// Notifier receives user-facing notifications from the session.
type Notifier interface {
	Notify(n Notification)
}

// Uploader sends a finished recording to the server. Implemented by
// client.Client.
type Uploader interface {
	Upload(ctx context.Context, filename, mimeType string, r io.Reader) error
}

// DefaultSuccessDelay is how long the success notification stays visible
// before the session navigates away.
const DefaultSuccessDelay = 1500 * time.Millisecond

// Session owns one capture-to-upload cycle. All mutation goes through its
// methods; handlers receive the session by reference and never touch
// ambient state. The zero value is not usable; use NewSession.
type Session struct {
	mu     sync.Mutex
	state  State
	chunks []Fragment
	blob   []byte
	stream Stream
	done   chan struct{} // closed when the fragment pump drains

	source   MediaSource
	uploader Uploader
	notifier Notifier

	// Filename and MimeType tag the uploaded recording.
	Filename string
	MimeType string

	// SuccessDelay is the pause between the success notification and
	// Navigate. Tests shorten it.
	SuccessDelay time.Duration

	// Navigate is invoked after a successful upload, once SuccessDelay
	// has elapsed. Nil disables navigation.
	Navigate func()
}

// NewSession creates an idle capture session.
func NewSession(source MediaSource, uploader Uploader, notifier Notifier) *Session {
	return &Session{
		state:        StateIdle,
		source:       source,
		uploader:     uploader,
		notifier:     notifier,
		Filename:     "recording.webm",
		MimeType:     "video/webm",
		SuccessDelay: DefaultSuccessDelay,
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BufferedFragments returns how many fragments the current recording has
// accumulated.
func (s *Session) BufferedFragments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// Blob returns the finished recording, or nil outside Previewing.
func (s *Session) Blob() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blob
}

func (s *Session) notify(severity Severity, summary, detail string) {
	if s.notifier != nil {
		s.notifier.Notify(Notification{Severity: severity, Summary: summary, Detail: detail})
	}
}

// StartRecording opens the media device and begins buffering fragments.
// The chunk buffer is reset on every entry, so a redo never leaks
// fragments from the previous take. A device failure leaves the session
// in Idle and surfaces exactly one error notification.
func (s *Session) StartRecording(ctx context.Context) error {
	s.mu.Lock()
	if !CanTransition(s.state, StateRecording) {
		from := s.state
		s.mu.Unlock()
		return &TransitionError{From: from, To: StateRecording}
	}
	s.mu.Unlock()

	stream, err := s.source.Open(ctx, DefaultConstraints)
	if err != nil {
		s.notify(SeverityError, "Error", "Could not access media devices.")
		return err
	}

	s.mu.Lock()
	s.chunks = nil
	s.blob = nil
	s.stream = stream
	s.done = make(chan struct{})
	s.state = StateRecording
	done := s.done
	s.mu.Unlock()

	// Fragment pump: the sole mutator of the chunk buffer while
	// recording. It exits when the stream closes its channel after Stop.
	go func() {
		defer close(done)
		for frag := range stream.Fragments() {
			if len(frag) == 0 {
				continue
			}
			s.mu.Lock()
			s.chunks = append(s.chunks, frag)
			s.mu.Unlock()
		}
	}()

	return nil
}

// StopRecording ends the capture, synchronously releases the device, and
// finalizes the buffered fragments into a single blob for preview.
func (s *Session) StopRecording() error {
	s.mu.Lock()
	if s.state != StateRecording {
		from := s.state
		s.mu.Unlock()
		return &TransitionError{From: from, To: StatePreviewing}
	}
	stream, done := s.stream, s.done
	s.mu.Unlock()

	stream.Stop()
	<-done // every delivered fragment is in the buffer

	s.mu.Lock()
	defer s.mu.Unlock()
	var buf bytes.Buffer
	for _, frag := range s.chunks {
		buf.Write(frag)
	}
	s.blob = buf.Bytes()
	s.stream = nil
	s.state = StatePreviewing
	return nil
}

// Redo discards the preview blob and buffered chunks, returning the
// session to Idle ready for a new recording.
func (s *Session) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !CanTransition(s.state, StateIdle) {
		return &TransitionError{From: s.state, To: StateIdle}
	}
	s.blob = nil
	s.chunks = nil
	s.state = StateIdle
	return nil
}

// Upload sends the finished recording to the server. The guard is checked
// synchronously under the session lock: an upload already in flight or an
// empty recording makes this a no-op, not an error, so double-clicks
// produce exactly one network call. On failure the session returns to
// Previewing so the user can retry without re-recording.
func (s *Session) Upload(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StatePreviewing || len(s.blob) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.state = StateUploading
	blob := s.blob
	s.mu.Unlock()

	err := s.uploader.Upload(ctx, s.Filename, s.MimeType, bytes.NewReader(blob))

	s.mu.Lock()
	if err != nil {
		s.state = StatePreviewing
		s.mu.Unlock()
		s.notify(SeverityError, "Error", "Upload failed.")
		return err
	}
	s.blob = nil
	s.chunks = nil
	s.state = StateIdle
	s.mu.Unlock()

	s.notify(SeveritySuccess, "Success", "Video successfully uploaded")
	if s.Navigate != nil {
		time.AfterFunc(s.SuccessDelay, s.Navigate)
	}
	return nil
}

// Close releases any held device handle. It is the teardown hook for
// navigation away: no media stream survives it regardless of state.
func (s *Session) Close() {
	s.mu.Lock()
	stream, done := s.stream, s.done
	wasRecording := s.state == StateRecording
	s.stream = nil
	if wasRecording {
		s.state = StateIdle
	}
	s.mu.Unlock()

	if stream != nil {
		stream.Stop()
		<-done
	}
	if wasRecording {
		s.mu.Lock()
		s.chunks = nil
		s.mu.Unlock()
	}
}
