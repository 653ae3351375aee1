package engine

import (
	"errors"
	"fmt"
)

var (
	ErrLibraryLoad         = errors.New("error loading library")
	ErrSymbolNotFound      = errors.New("command function not found in library")
	ErrUnsupportedPlatform = errors.New("loading native libraries is not supported on this platform")
	ErrClosed              = errors.New("engine closed")
	ErrBusy                = errors.New("engine busy")
	ErrInvalidCommand      = errors.New("invalid command")
)

// CommandError is returned by the strict client path when the library
// reports anything but success. Message holds the text the library wrote
// into the response buffer, which is its error description.
type CommandError struct {
	Name    string
	Status  Status
	Message string
}

func (e *CommandError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("command %q failed with status %d", e.Name, e.Status)
	}
	return fmt.Sprintf("command %q failed with status %d: %s", e.Name, e.Status, e.Message)
}

// Is makes errors.Is(err, ErrBusy) true for status 0.
func (e *CommandError) Is(target error) bool {
	return target == ErrBusy && e.Status == StatusBusy
}

func invalidCommand(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCommand, fmt.Sprintf(format, args...))
}
