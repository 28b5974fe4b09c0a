// Where: cli/internal/domain/topology/errors.go
// What: Error taxonomy for resolution, assembly, and custom actions.
// Why: Let callers classify failures with errors.Is/errors.As across layers.
package topology

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField   = errors.New("missing field")
	ErrInvalidShape   = errors.New("invalid shape")
	ErrTargetNotFound = errors.New("target not found")
	ErrBackend        = errors.New("backend error")
	ErrUnresolved     = errors.New("service endpoint not resolved")
)

// ConfigError reports a configuration problem detected before any declaration.
type ConfigError struct {
	Kind   error
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Detail)
}

func (e *ConfigError) Is(target error) bool {
	return target == e.Kind
}

// MissingField builds a ConfigError for an absent required field.
func MissingField(field string) error {
	return &ConfigError{Kind: ErrMissingField, Field: field}
}

// InvalidShape builds a ConfigError for a field with the wrong structure.
func InvalidShape(field, detail string) error {
	return &ConfigError{Kind: ErrInvalidShape, Field: field, Detail: detail}
}

// BackendError wraps a failure surfaced by the provisioning backend.
// The original error stays reachable through Unwrap.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

// WrapBackend returns nil for a nil err, leaves BackendErrors untouched, and
// wraps anything else.
func WrapBackend(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Op: op, Err: err}
}

// TargetNotFound reports a custom-action target that does not exist.
func TargetNotFound(name string) error {
	return fmt.Errorf("%w: %s", ErrTargetNotFound, name)
}
