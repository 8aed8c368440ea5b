package domain

import "errors"

var (
	// ErrCorpusUnavailable signals that the post corpus failed or timed out.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
	// ErrInvalidSearch signals a malformed tag search expression.
	ErrInvalidSearch = errors.New("invalid search")
	// ErrInvalidRequest signals invalid request parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)
