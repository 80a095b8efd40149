package service

import (
	"errors"
	"fmt"
)

// ErrInvalidStatus is returned for a status filter outside PENDING, SENT, FAILED.
var ErrInvalidStatus = errors.New("invalid sms status")

// PersistenceError means the store refused a read or write. Err carries the
// detail for logs; clients only see a generic message.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
