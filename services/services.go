// Package services implements the timer service operations on top of the
// store: validation, ownership checks, nested timer type resolution and
// cache maintenance.
package services

import (
	"errors"

	"timer-service/store"
)

// ErrNotFound is returned for rows that are missing or owned by someone else.
// Callers cannot tell the two apart.
var ErrNotFound = errors.New("not found")

// notFound folds store.ErrNotFound into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
