package capture

import "context"

// Constraints describes the capture parameters requested from the device.
type Constraints struct {
	Width  int
	Height int
	Audio  bool
}

// DefaultConstraints is the fixed capture configuration: 640x360 video
// with audio enabled.
var DefaultConstraints = Constraints{Width: 640, Height: 360, Audio: true}

// Fragment is one encoded media chunk as delivered by the capture device.
type Fragment []byte

// Stream is an open capture stream.
type Stream interface {
	// Fragments delivers encoded media fragments in arrival order. The
	// channel is closed after Stop once all buffered fragments have been
	// delivered.
	Fragments() <-chan Fragment

	// Stop ends the capture and releases the underlying device handles.
	// It must be safe to call more than once; the release is synchronous
	// so no hardware handle outlives the call.
	Stop()
}

// MediaSource opens capture streams. Implementations adapt whatever
// platform capture API exists (a browser MediaRecorder bridge, a V4L2
// device, a file playback source for tests).
type MediaSource interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}
