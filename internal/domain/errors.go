package domain

import (
	"errors"
	"fmt"
)

// ErrSettingsNotFound is returned by SettingsStore.Load when the user
// has no persisted settings yet.
var ErrSettingsNotFound = errors.New("settings not found")

// UserInputError marks input the user can fix: bad date format,
// invalid JSON, configuration that fails validation. Surfaced verbatim,
// never advances state.
type UserInputError struct {
	Msg string
}

func (e *UserInputError) Error() string { return e.Msg }

func NewUserInputError(format string, args ...any) error {
	return &UserInputError{Msg: fmt.Sprintf(format, args...)}
}

// AdapterError marks a failed call to an external capability
// (extractor, transcription). Always recoverable in place.
type AdapterError struct {
	Op  string
	Err error
}

func (e *AdapterError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *AdapterError) Unwrap() error { return e.Err }

// StoreError marks a failed operation against the tabular or settings
// store. Reported as a soft warning; the conversational commit is
// decoupled from the store write's success.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

func IsUserInput(err error) bool {
	var ue *UserInputError
	return errors.As(err, &ue)
}

func IsAdapter(err error) bool {
	var ae *AdapterError
	return errors.As(err, &ae)
}

func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
