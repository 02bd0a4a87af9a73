package engine

import (
	"errors"
	"fmt"
	"log"
)

// Errors returned by engine operations.
var (
	// ErrOutOfRange indicates an offset or range outside [0, Len()].
	ErrOutOfRange = errors.New("offset out of range")

	// ErrEmptyDocument indicates an operation that requires content.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrInvalidPattern indicates a regex pattern that failed to compile.
	ErrInvalidPattern = errors.New("invalid search pattern")

	// ErrInternal indicates an engine invariant violation, including
	// re-entrant mutation from a listener callback.
	ErrInternal = errors.New("internal engine error")
)

// fail applies the engine's error policy: panic when throw-on-error is
// set, otherwise log a tagged diagnostic and hand the error back so the
// operation can return its sentinel value.
func (e *Engine) fail(op string, err error) error {
	err = fmt.Errorf("%s: %w", op, err)
	if e.throwOnError {
		panic("piecetable: " + err.Error())
	}
	log.Printf("piecetable: %v", err)
	return err
}
