package bitcoin

import (
	"errors"
)

// Sentinel errors shared across the bitcoin package's key, address, and script types.
var (
	ErrBadCheckSum         = errors.New("Address has bad checksum")
	ErrBadType             = errors.New("Address type unknown")
	ErrWrongType           = errors.New("Address type wrong")
	ErrBadScriptHashLength = errors.New("Script hash has invalid length")
	ErrOutOfRangeKey       = errors.New("Out of range key")
	ErrNotP2PKH            = errors.New("Not P2PKH")
	ErrWrongSize           = errors.New("Wrong byte size")
)
