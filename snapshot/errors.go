package snapshot

import "errors"

var (
	// ErrCorrupted is returned when a stored item fails its checksum.
	ErrCorrupted = errors.New("snapshot: corrupted item")

	ErrClosed = errors.New("snapshot: closed")
)
