// Package capture implements the record-preview-upload flow used by the
// recording client. The flow is an explicit state machine owned by a
// Session; every transition is validated against a fixed table, so UI
// glue cannot drive the session into an inconsistent state.
package capture

import "fmt"

// State is the capture session state.
type State string

const (
	// StateIdle means no recording exists; the camera is off.
	StateIdle State = "idle"

	// StateRecording means the device is open and fragments are being
	// buffered.
	StateRecording State = "recording"

	// StatePreviewing means a finished recording is held for local
	// playback, ready to be uploaded or discarded.
	StatePreviewing State = "previewing"

	// StateUploading means the recording is in flight to the server.
	StateUploading State = "uploading"
)

// ValidTransitions defines the allowed state transitions for capture
// sessions. Key is the current state, value is a slice of valid next states.
var ValidTransitions = map[State][]State{
	StateIdle: {
		StateRecording,
	},
	StateRecording: {
		StatePreviewing,
	},
	StatePreviewing: {
		StateIdle,      // redo
		StateUploading,
	},
	StateUploading: {
		StateIdle,       // upload acknowledged
		StatePreviewing, // upload failed, keep the recording for retry
	},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to State) bool {
	validTargets, exists := ValidTransitions[from]
	if !exists {
		return false
	}
	for _, target := range validTargets {
		if target == to {
			return true
		}
	}
	return false
}

// TransitionError represents an invalid state transition attempt.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid capture state transition: %s -> %s", e.From, e.To)
}
