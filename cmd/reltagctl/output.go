package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/reltag/internal/domain"
)

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitError carries the process exit code for a command failure.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// withExitCode formats an error that exits with code.
func withExitCode(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

// reportError outputs an error in the appropriate format (human or JSON).
func reportError(err error) {
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		return
	}
	_ = outputJSON(ErrorResponse{Error: err.Error()})
}

// exitCodeFor maps command errors to exit codes. An explicit exitError code
// wins over the domain sentinel mapping.
func exitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	switch {
	case errors.Is(err, domain.ErrInvalidSearch), errors.Is(err, domain.ErrInvalidRequest):
		return ExitDataError
	case errors.Is(err, domain.ErrCorpusUnavailable):
		return ExitUnavailable
	default:
		return ExitError
	}
}

// emit prints v as JSON, or calls human when --human is set.
func emit(v any, human func()) error {
	if humanOutput {
		human()
		return nil
	}
	return outputJSON(v)
}
