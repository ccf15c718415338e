package domain

import "fmt"

// StorageError indicates the relational store was unreachable or a
// query failed. The operation that hit it is aborted as a whole and no
// state is changed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps a low-level database error
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// DataInconsistencyError indicates a single record references data that
// should exist but does not, e.g. a trade pointing at a security with
// no currency. It aborts only the affected record's derivation.
type DataInconsistencyError struct {
	Detail string
}

func (e *DataInconsistencyError) Error() string {
	return fmt.Sprintf("data inconsistency: %s", e.Detail)
}

// NewDataInconsistencyError creates a DataInconsistencyError
func NewDataInconsistencyError(format string, args ...interface{}) *DataInconsistencyError {
	return &DataInconsistencyError{Detail: fmt.Sprintf(format, args...)}
}
