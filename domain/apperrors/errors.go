// Package apperrors holds the error kinds the membership pipeline can
// produce. Handlers map these to HTTP statuses with errors.Is; anything
// else coming out of a store is wrapped in a StoreError and treated as a
// generic failure.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrBadPassword     = errors.New("invalid room password")
	ErrRoomFull        = errors.New("room capacity exceeded")
	ErrParamsMismatch  = errors.New("params mismatch")
	ErrUserNotInRoom   = errors.New("user is not a member of this room")
	ErrVersionConflict = errors.New("room version conflict")
)

// StoreError wraps an underlying room- or user-store failure so callers can
// distinguish infrastructure faults from precondition failures.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure in %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// WrapStore returns err as-is when it is already a known kind, otherwise
// wraps it as a StoreError for the given operation.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}

	for _, known := range []error{
		ErrRoomNotFound, ErrUserNotFound, ErrBadPassword, ErrRoomFull,
		ErrParamsMismatch, ErrUserNotInRoom, ErrVersionConflict,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	return &StoreError{Op: op, Err: err}
}

// IsStoreFailure reports whether err is (or wraps) a StoreError.
func IsStoreFailure(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
