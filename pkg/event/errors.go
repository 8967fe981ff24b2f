package event

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("invalid event")
	ErrNotFound   = errors.New("event not found")
	ErrConflict   = errors.New("conflict detected")
)

type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("event starting at %s not found", e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError lists every stored event overlapping the requested interval.
type ConflictError struct {
	Conflicts []Event
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	b.WriteString("Conflict detected with the following events:")
	for _, c := range e.Conflicts {
		b.WriteString("\n")
		b.WriteString(c.String())
	}
	b.WriteString("\nPlease adjust the start time or duration to avoid conflicts.")
	return b.String()
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
