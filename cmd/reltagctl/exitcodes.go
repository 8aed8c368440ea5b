package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Corpus or cache could not be opened
	ExitDataError   = 3 // Malformed input or invalid search
	ExitUnavailable = 4 // Corpus query failed or timed out
)
