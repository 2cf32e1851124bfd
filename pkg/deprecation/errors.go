package deprecation

import (
	"errors"
	"fmt"
)

// Configuration errors. Build wraps them in a *ConfigError.
var (
	ErrEmptyID                 = errors.New("endpoint id is required")
	ErrDuplicateID             = errors.New("duplicate endpoint id")
	ErrInvalidPattern          = errors.New("invalid path pattern")
	ErrSunsetBeforeDeprecation = errors.New("sunset_at is before deprecated_at")
	ErrMissingReplacement      = errors.New("redirect action requires a replacement")
	ErrEmptyReplacementPath    = errors.New("replacement path is required")
	ErrUnknownStatus           = errors.New("unknown status")
	ErrUnknownAction           = errors.New("unknown action type")
	ErrUnknownPastSunsetAction = errors.New("unknown past_sunset_action")
	ErrInvalidStatusCode       = errors.New("invalid status code")
)

// ConfigError reports a rule that cannot be loaded.
type ConfigError struct {
	// Index is the rule's position in declaration order.
	Index int
	ID    string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	id := e.ID
	if id == "" {
		id = fmt.Sprintf("#%d", e.Index)
	}
	if e.Field != "" {
		return fmt.Sprintf("endpoint %s: %s: %v", id, e.Field, e.Err)
	}
	return fmt.Sprintf("endpoint %s: %v", id, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
