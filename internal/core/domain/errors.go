package domain

import (
	"fmt"
)

// Dependency tags which external collaborator a failed read belonged to.
type Dependency string

const (
	DependencyModule Dependency = "module"
	DependencyOracle Dependency = "oracle"
)

// InvalidTransactionError marks a batch entry that failed validation
// before hashing was attempted. Fatal, not retried.
type InvalidTransactionError struct {
	Index int
	Err   error
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("invalid transaction at index %d: %v", e.Index, e.Err)
}

func (e *InvalidTransactionError) Unwrap() error { return e.Err }

// TransportError is a read or write RPC failure. Surfaced to the caller,
// never retried at the protocol layer; the caller may retry the whole
// operation.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DependencyError is a failed read during state assembly, tagged by which
// collaborator failed. No partial read-model is returned alongside it.
type DependencyError struct {
	Dependency Dependency
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// RevertError is a transaction that was submitted and mined but reverted.
// Carries the receipt for caller inspection; funds may already have been
// consumed, so callers must not blindly resubmit.
type RevertError struct {
	Stage   string
	Receipt *Receipt
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("transaction reverted at stage %q: tx %s", e.Stage, e.Receipt.TxHash)
}
