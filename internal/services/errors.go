package services

import (
	"errors"
	"fmt"

	"taskflow/internal/repositories"
	"taskflow/internal/workflow"
)

var (
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func denied(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// fromRepo maps repository errors onto the service sentinels.
func fromRepo(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

// fromEngine maps a refused transition onto ErrForbidden, keeping the cause.
func fromEngine(err error) error {
	if errors.Is(err, workflow.ErrTransitionNotAllowed) {
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return err
}
