package channelcoder

import "errors"

var (
	// ErrBitDepthOverflow is returned when a channel's range, combined with
	// its predictor, needs more bits than the coder's compiled headroom.
	ErrBitDepthOverflow = errors.New("channelcoder: bit depth overflow")
	// ErrInvalidGroup is returned for a malformed group header on decode.
	ErrInvalidGroup = errors.New("channelcoder: invalid group header")
)
