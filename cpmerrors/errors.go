// Package cpmerrors defines the sentinel error families shared across the
// cpm simulation core.
//
// Error policy (mirrors lvlath/builder's errors.go):
//   - Only sentinel variables are exposed at package scope.
//   - Callers branch with errors.Is, never by comparing strings.
//   - Context (offending cell id, op name, ...) is attached with Wrap, which
//     uses %w so the sentinel survives unwrapping.
package cpmerrors

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration covers non-symmetric J, a shape/type-count mismatch
	// between a penalty's parameters and the declared type count, a
	// chemotaxis field shape that disagrees with the lattice shape, an
	// empty shape, or a non-positive extent.
	ErrConfiguration = errors.New("cpm: configuration error")

	// ErrPlacement covers initial cells that cannot fit (sum of desired
	// volumes exceeds lattice capacity) or explicit positions out of range.
	ErrPlacement = errors.New("cpm: placement error")

	// ErrInvariantViolation covers an internal check failure: volume sum
	// != V, a negative perimeter, a disconnected non-medium cell. Fatal;
	// never recovered from.
	ErrInvariantViolation = errors.New("cpm: invariant violation")

	// ErrInvalidOperation covers RemoveCell on a non-empty cell, a
	// recording query before any step, or LatticeAt with negative time.
	ErrInvalidOperation = errors.New("cpm: invalid operation")
)

// Wrap attaches op context and, when cellID >= 0, the offending cell id to
// sentinel, preserving it for errors.Is.
func Wrap(sentinel error, op string, cellID int, err error) error {
	if cellID >= 0 {
		if err != nil {
			return fmt.Errorf("%s: cell %d: %w: %w", op, cellID, err, sentinel)
		}
		return fmt.Errorf("%s: cell %d: %w", op, cellID, sentinel)
	}
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, err, sentinel)
	}
	return fmt.Errorf("%s: %w", op, sentinel)
}
