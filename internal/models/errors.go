package models

import "errors"

var (
	// ErrBadRequest signals a malformed kind, query, or pagination window.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound signals that a target id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals an invariant violation, e.g. a duplicate OCR row.
	ErrConflict = errors.New("conflict")
	// ErrTransient signals a retryable backing-store failure.
	ErrTransient = errors.New("transient store error")
	// ErrInternal signals a bug inside the index itself.
	ErrInternal = errors.New("internal error")
)
