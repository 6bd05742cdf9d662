package ring

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyProfile is returned when a speed profile has no entries.
	ErrEmptyProfile = errors.New("speed profile has no entries")
	// ErrAlreadyTicking is returned by Run when the ring is already driving ticks.
	ErrAlreadyTicking = errors.New("ring is already ticking")
)

// ConfigurationError reports a value rejected while constructing a
// profile, track, geometry or position.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErr(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
