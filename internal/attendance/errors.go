package attendance

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Ag1104/attendance-system/internal/storage"
)

var (
	ErrStaffIDRequired    = errors.New("staff id required")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrUnknownStaff       = errors.New("unknown staff id")
	ErrOutsidePerimeter   = errors.New("outside office perimeter")
	ErrWindowNotOpen      = errors.New("sign-in window not open")
	ErrWindowClosed       = errors.New("sign-in window closed")
	ErrDuplicateStaff     = storage.ErrDuplicateStaff
	ErrDuplicateDevice    = storage.ErrDuplicateDevice
)

// RejectionError is a sign-in refused by validation. Status is the HTTP
// status to answer with and Message the text shown to staff.
type RejectionError struct {
	Err     error
	State   State
	Status  int
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("sign-in rejected after %s: %s", e.State, e.Message)
}

func (e *RejectionError) Unwrap() error { return e.Err }

func reject(state State, err error, status int, msg string) *RejectionError {
	return &RejectionError{Err: err, State: state, Status: status, Message: msg}
}

func duplicate(err error) *RejectionError {
	if errors.Is(err, ErrDuplicateDevice) {
		return reject(StateValidatedTimeWindow, err, http.StatusConflict, "This device has already signed in today")
	}
	return reject(StateValidatedTimeWindow, err, http.StatusConflict, "This staff has already signed in today")
}
