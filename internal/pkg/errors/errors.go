// Package errors holds the authentication sentinels shared by services and transport.
// Every other failure is an aggregate error.
package errors

import "errors"

var (
	// ErrUnauthorized covers a missing, malformed or expired bearer token, and a token
	// whose user has since been deleted.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned by login for both an unknown username and a wrong
	// password, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
