package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Registry errors are logged by the repository layer and never returned past it.
	ErrStorage = fmt.Errorf("artist registry failure")

	// Any failed call to the catalog or playlist API. Aborts the current update cycle.
	ErrRemoteAPI = fmt.Errorf("remote API request failed")

	// A release date that is not YYYY, YYYY-MM or YYYY-MM-DD. The track is skipped.
	ErrDateParse = fmt.Errorf("invalid release date")

	ErrArtistNotFound   = fmt.Errorf("artist not found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
