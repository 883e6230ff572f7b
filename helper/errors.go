package helper

import (
	"errors"
	"fmt"
)

// Sentinel error kinds per the system's error-kind taxonomy. Callers use
// errors.Is against these after unwrapping a helper.NewError-wrapped error.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrStoreError          = errors.New("store error")
	ErrParseError          = errors.New("parse error")
	ErrConfigError         = errors.New("config error")
)

// NewError wraps err with the operation that produced it, preserving
// errors.Unwrap/errors.Is against sentinel kinds joined in via errors.Join
// upstream (e.g. fmt.Errorf("%w: %w", helper.ErrNotFound, cause)).
func NewError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// WrapKind wraps err with both an operation label and a sentinel kind, so
// callers further up the stack can errors.Is(err, helper.ErrNotFound) etc.
func WrapKind(op string, kind error, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
