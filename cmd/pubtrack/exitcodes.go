package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no repository, missing roster, bad config)
	ExitDataError   = 3 // Data error (invalid roster, corrupt saved state)
)
