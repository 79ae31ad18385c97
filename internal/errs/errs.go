// Package errs defines the error kinds reported by the bookkeeping core.
//
// Each kind is a struct type usable with errors.As and also matches a
// sentinel with errors.Is, so callers can branch on the kind without
// caring about the details.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrConfiguration = errors.New("configuration error")
	ErrPersistence   = errors.New("persistence failed")
	ErrCycle         = errors.New("account parent cycle")
)

// Violation describes a single broken invariant.
type Violation struct {
	Invariant   int
	Subject     string
	Description string
}

func (v Violation) String() string {
	if v.Subject == "" {
		return fmt.Sprintf("invariant %d: %s", v.Invariant, v.Description)
	}
	return fmt.Sprintf("invariant %d [%s]: %s", v.Invariant, v.Subject, v.Description)
}

// ValidationError reports malformed input to a mutation.
type ValidationError struct {
	Violations []Violation
}

// Invalid builds a ValidationError with a single violation.
func Invalid(invariant int, subject, format string, args ...any) *ValidationError {
	return &ValidationError{Violations: []Violation{{
		Invariant:   invariant,
		Subject:     subject,
		Description: fmt.Sprintf(format, args...),
	}}}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Has reports whether invariant is among the violations.
func (e *ValidationError) Has(invariant int) bool {
	for _, v := range e.Violations {
		if v.Invariant == invariant {
			return true
		}
	}
	return false
}

// NotFoundError reports an unknown account or transaction identity.
type NotFoundError struct {
	Kind string // "account" or "transaction"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AccountNotFound is shorthand for a missing account.
func AccountNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "account", ID: id}
}

// TransactionNotFound is shorthand for a missing transaction.
func TransactionNotFound(id string) *NotFoundError {
	return &NotFoundError{Kind: "transaction", ID: id}
}

// ConfigurationError reports a missing well-known account.
type ConfigurationError struct {
	AccountID string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: account %q: %s", e.AccountID, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// PersistenceError wraps a failure of the durability collaborator.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a PersistenceError for op. Nil stays nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// CycleError reports a parent chain that loops back on itself.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "account parent cycle: " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }
