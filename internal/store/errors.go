package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRecordNotFound is returned when a referenced id does not exist.
var ErrRecordNotFound = errors.New("record not found")

// DuplicateKeyError reports key collisions that abort a bulk insert.
type DuplicateKeyError struct {
	// Keys are the colliding values, e.g. Contract IDs or
	// "contractID|date" pairs.
	Keys []string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate keys: %s", strings.Join(e.Keys, ", "))
}

// IsDuplicateKey reports whether err is a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup)
}
