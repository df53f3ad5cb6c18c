package bert

import "github.com/pkg/errors"

var (
	// ErrEnvelope is returned when a buffer does not start with the
	// version byte 131.
	ErrEnvelope = errors.New("bert: not a recognized envelope")

	// ErrRange is returned when a value or count does not fit the width
	// of its wire field, or when a number has no integer representation.
	ErrRange = errors.New("bert: value out of range")

	// ErrTruncated is returned when decoding reads past the end of the
	// input.
	ErrTruncated = errors.New("bert: truncated input")

	// ErrUnknownTag is returned for tag bytes the codec does not know.
	ErrUnknownTag = errors.New("bert: unknown tag")

	// ErrCompressed is returned when a compressed term cannot be inflated
	// or inflates to a size other than the declared one.
	ErrCompressed = errors.New("bert: bad compressed term")

	// ErrDepth is returned when terms nest deeper than MaxDepth.
	ErrDepth = errors.New("bert: term nested too deeply")
)
