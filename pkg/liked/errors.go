package liked

import (
	"errors"
	"fmt"
)

var (
	ErrGroupExists      = errors.New("group already exists")
	ErrGroupNotFound    = errors.New("group not found")
	ErrInvalidGroupName = errors.New("group name must not be empty")
	ErrIndexOutOfRange  = errors.New("index out of range")
)

// PersistenceError wraps a failed read or write of a liked collection. When
// returned from Collections the in-memory value has been left as it was.
type PersistenceError struct {
	Operation string
	Key       string
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("liked collections %s %s: %v", e.Operation, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func asPersistenceError(operation string, key string, err error) error {
	var persistenceErr *PersistenceError
	if errors.As(err, &persistenceErr) {
		return persistenceErr
	}

	return &PersistenceError{Operation: operation, Key: key, Err: err}
}
