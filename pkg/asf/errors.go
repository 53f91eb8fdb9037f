package asf

import (
	"errors"
	"fmt"
)

// Error taxonomy. Internal errors wrap one of these and callers
// should test with errors.Is.
var (
	// ErrInvalidContainer malformed or truncated object data.
	ErrInvalidContainer = errors.New("invalid container")

	// ErrInvalidFile is returned at the file boundary for any structural failure.
	ErrInvalidFile = fmt.Errorf("invalid media file: %w", ErrInvalidContainer)

	// ErrUnsupportedPacket opaque data, unexpected error correction
	// layout or a payload layout that cannot be decoded.
	ErrUnsupportedPacket = errors.New("unsupported packet")

	// ErrStreamRangeNotFound the requested time range could not be located.
	ErrStreamRangeNotFound = errors.New("stream data within offsets not found")

	// ErrInvalidArgument negative offsets, reversed ranges or a stream
	// type the file cannot provide.
	ErrInvalidArgument = errors.New("invalid argument")
)

var errShortObject = errors.New("short object")
