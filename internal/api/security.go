package api

import (
	"errors"
	"fmt"
)

// MaxIDLength bounds project IDs accepted in URLs.
const MaxIDLength = 64

// ErrInvalidID is returned for malformed project IDs.
var ErrInvalidID = errors.New("invalid project id")

// ValidateID rejects IDs that could not have been issued by the service:
// empty, overlong, or containing anything but ASCII letters, digits, '-'
// and '_'. Well-formed but unknown IDs pass and are reported as not found
// by the store.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidID, MaxIDLength)
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return fmt.Errorf("%w: unexpected character %q", ErrInvalidID, c)
		}
	}
	return nil
}
