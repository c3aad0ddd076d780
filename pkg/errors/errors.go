package errors

import "errors"

var (
	// Store errors
	ErrNilStore     = errors.New("store is nil")
	ErrDestroyed    = errors.New("store has been destroyed")
	ErrEmptyKey     = errors.New("key cannot be empty")
	ErrKeyTooLong   = errors.New("key exceeds maximum length")
	ErrValueTooLong = errors.New("value exceeds maximum length")
	ErrKeyNotFound  = errors.New("key not found")

	// Construction errors
	ErrInvalidCapacity     = errors.New("capacity must be positive")
	ErrUnknownHashFunction = errors.New("unknown hash function")

	// Boundary errors
	ErrInvalidHandle = errors.New("invalid store handle")
)

// IsInvalidArgument reports whether err rejects the caller's input
// rather than reporting an absent key.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrNilStore) ||
		errors.Is(err, ErrDestroyed) ||
		errors.Is(err, ErrEmptyKey) ||
		errors.Is(err, ErrKeyTooLong) ||
		errors.Is(err, ErrValueTooLong) ||
		errors.Is(err, ErrInvalidHandle)
}
