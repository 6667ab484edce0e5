package dispatch

import "errors"

// ErrInvalidInstruction is wrapped into Decode's error whenever a word's
// opcode (or opcode/funct7/funct3 combination) does not classify to any
// known instruction. The caller
// retires the slot as a no-op and counts it, rather than treating this as
// a hard failure.
var ErrInvalidInstruction = errors.New("dispatch: invalid instruction")
