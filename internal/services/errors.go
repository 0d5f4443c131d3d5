package services

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Every operation ends in success or exactly one of these.
var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("not found")
	ErrSlotUnavailable    = errors.New("slot unavailable")
	ErrAlreadyExists      = errors.New("already exists")
	ErrStorage            = errors.New("storage failure")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
)

// storageFailure logs the underlying store error and hides it behind ErrStorage.
func storageFailure(log zerolog.Logger, op string, err error) error {
	log.Error().Err(err).Str("op", op).Msg("storage failure")
	return fmt.Errorf("%s: %w", op, ErrStorage)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
