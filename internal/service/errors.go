package service

import (
	"errors"
	"fmt"

	"github.com/Eursukkul/trainer-booking-service/internal/repository"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidState         = errors.New("invalid state")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrDuplicateApplication = errors.New("trainer already applied to this request")
	ErrDuplicateSubmission  = errors.New("feedback already submitted for this respondent")
	ErrValidation           = errors.New("validation failed")
	ErrVersionConflict      = errors.New("version does not match current state")
)

func notFound(what string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, what, id)
}

// lookup turns a repository miss into ErrNotFound and passes anything else through.
func lookup(err error, what string, id any) error {
	if repository.IsNotFound(err) {
		return notFound(what, id)
	}
	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
