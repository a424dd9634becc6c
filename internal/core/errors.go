package core

import (
	"errors"
	"fmt"
)

var (
	ErrMissingInput    = errors.New("missing required input")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Input names as exposed to callers.
const (
	InputItems1      = "items1"
	InputItems2      = "items2"
	InputItemString  = "itemString"
	InputSeparator   = "separator"
	InputInString    = "inString"
	InputProjectFile = "projectFile"
)

// MissingInputError reports an absent required input. It is raised before
// any processing begins.
type MissingInputError struct {
	Input string
}

func (e *MissingInputError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s is required", ErrMissingInput.Error(), e.Input)
}

func (e *MissingInputError) Unwrap() error { return ErrMissingInput }

// IndexOutOfRangeError reports positional access outside [0, Size).
type IndexOutOfRangeError struct {
	Position int
	Size     int
}

func (e *IndexOutOfRangeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: position %d is outside the size of the item collection: %d", ErrIndexOutOfRange.Error(), e.Position, e.Size)
}

func (e *IndexOutOfRangeError) Unwrap() error { return ErrIndexOutOfRange }

func missing(input string) error {
	return &MissingInputError{Input: input}
}
