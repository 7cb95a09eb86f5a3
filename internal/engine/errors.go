package engine

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindCapacity   Kind = "capacity"
	KindInvariant  Kind = "invariant"
	KindPermission Kind = "permission"
)

// Error is a rejected engine operation. No write has happened when one is
// returned.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Msg
}

// Is matches the kind sentinels below, so errors.Is(err, ErrCapacity) works
// for any capacity rejection.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Msg == "" && t.Kind == e.Kind
}

var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrCapacity   = &Error{Kind: KindCapacity}
	ErrInvariant  = &Error{Kind: KindInvariant}
	ErrPermission = &Error{Kind: KindPermission}
)

func newError(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of an engine error anywhere in err's chain, or ""
// for store and infrastructure failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// storeError classifies a repository error. Missing rows become NotFound,
// unique index violations become Conflict, anything else is wrapped as is.
func storeError(op, what string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return newError(KindNotFound, op, "%s not found", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return newError(KindConflict, op, "%s already exists", what)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
