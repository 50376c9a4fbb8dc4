package domain

import (
	"errors"
)

// Sentinel errors forming the application error taxonomy. Collaborator
// failures are mapped onto one of these at component boundaries; the API
// layer translates them to HTTP status codes. Wrap them with fmt.Errorf and
// %w so errors.Is keeps working.
var (
	// ErrUnauthenticated means the request carried no resolvable identity.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrValidation means the input was malformed or empty.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound means a referenced user or activity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDataIncomplete means profile or lifestyle prerequisites for
	// personalization are missing. Retriable once onboarding is finished.
	ErrDataIncomplete = errors.New("profile data incomplete")

	// ErrUpstream means the oracle or storage collaborator failed
	// transiently. Details are logged server-side only.
	ErrUpstream = errors.New("upstream failure")
)
