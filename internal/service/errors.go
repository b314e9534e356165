package service

import (
	"alcyxob/workout-planner/internal/repository"
	"errors"
	"fmt"
	"strings"
	"time"
)

// --- Error Kinds ---
// Every service error wraps exactly one of these, so callers can map them
// with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidRange     = errors.New("invalid date range")
	ErrConflict         = errors.New("conflict")
	ErrValidationFailed = errors.New("validation failed")
)

// ConflictError carries the dated plans that overlap a rejected create/update.
type ConflictError struct {
	Conflicts []PlanConflict
}

func (e *ConflictError) Error() string {
	names := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		names[i] = fmt.Sprintf("%q (%s..%s)", c.Name, c.StartDate.Format("2006-01-02"), c.EndDate.Format("2006-01-02"))
	}
	return "plan dates overlap with " + strings.Join(names, ", ")
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}

// fromRepo maps repository errors onto the service kinds. A unique-index
// violation means a concurrent writer got there first.
func fromRepo(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// Clock returns the current time. Services take one so "today" is testable.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }
