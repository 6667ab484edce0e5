package units

import "errors"

// Sentinel errors for the LSU's memory-access failure conditions
// contract: never panics, always surfaced as a failed response
// packet (Success=false).
var (
	// ErrUnaligned is returned when a word-addressed access's address is
	// not a multiple of the word size.
	ErrUnaligned = errors.New("units: misaligned memory access")

	// ErrOutOfRange is returned when an access's address, or the
	// word-sized window starting at it, falls outside the backing store.
	ErrOutOfRange = errors.New("units: memory access out of range")
)
