package domain

import (
	"errors"
	"fmt"
)

const (
	OpIndex  = "index"
	OpDetail = "detail"
)

// FetchError reports a failed request to the catalog API.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AuthError carries a rejection from the identity provider. Message is shown
// to the user as is.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ValidationError is raised by client-side checks before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UserMessage turns any operation error into the message shown in the UI.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		if authErr.Message == "" {
			return "Authentication failed"
		}
		return authErr.Message
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		if fetchErr.Op == OpIndex {
			return "Failed to fetch Pokémon list"
		}
		return "Failed to fetch Pokémon details"
	}

	return "Something went wrong. Please try again."
}
