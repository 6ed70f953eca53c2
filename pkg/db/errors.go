package db

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict matches every *ConcurrentMutationError
	ErrConflict = errors.New("concurrent modification")

	ErrNotFound = errors.New("not found")
)

// ConcurrentMutationError means state changed between a check and its
// commit. The caller should reload and retry.
type ConcurrentMutationError struct {
	// Entity is the kind of record that changed, e.g. "seat"
	Entity string
	ID     string
	Detail string
}

func (e *ConcurrentMutationError) Error() string {
	return fmt.Sprintf("%s %s changed concurrently: %s", e.Entity, e.ID, e.Detail)
}

func (e *ConcurrentMutationError) Is(target error) bool {
	return target == ErrConflict
}

// NotFound wraps ErrNotFound with the missing record
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}
