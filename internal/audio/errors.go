package audio

import "errors"

// Recoverable trigger failures. The monitor logs them and carries on.
var (
	// ErrDevice means neither the named device nor a default device is available.
	ErrDevice = errors.New("no usable output device")

	// ErrNoCue means the category's cue directory is missing or empty.
	ErrNoCue = errors.New("no cue available")

	// ErrDecode means the selected cue is malformed or in an unsupported format.
	ErrDecode = errors.New("failed to decode cue")

	// ErrPlayback means the backend failed or playback was cut short.
	ErrPlayback = errors.New("playback failed")
)
