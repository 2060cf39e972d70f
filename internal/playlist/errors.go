package playlist

import "errors"

// Error kinds returned by the list and playlist layers. Callers distinguish
// them with errors.Is; the higher-level Playlist mutators collapse them into
// a boolean result instead (see Playlist).
var (
	// ErrInvalidPosition is returned for positions outside the valid range
	// of the operation.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrEmptyList is returned when an operation requires at least one track.
	ErrEmptyList = errors.New("list is empty")

	// ErrInvalidArgument is returned for bad argument values (volume, repeat
	// mode, nil playlist, malformed names).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a track or playlist id lookup misses.
	ErrNotFound = errors.New("not found")
)
