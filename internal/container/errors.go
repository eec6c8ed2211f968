package container

import "errors"

var (
	// ErrMalformedHeader covers bad magic, varint overflow, or nonsensical
	// dimensions in the top-level header.
	ErrMalformedHeader = errors.New("container: malformed header")
	// ErrInvalidTransform is returned when the transform list references
	// an unknown id or a channel index out of range.
	ErrInvalidTransform = errors.New("container: invalid transform")
	// ErrCorruptStream is a hard failure: EOF where truncation cannot
	// apply (mid-tree, mid-header), as opposed to a clean stop at a
	// channel-group boundary.
	ErrCorruptStream = errors.New("container: corrupt stream")
)
