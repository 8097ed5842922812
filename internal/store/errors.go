package store

import "errors"

var (
	// ErrNotFound covers missing documents and expired or unknown sessions.
	ErrNotFound = errors.New("not found")

	// ErrEmailInUse is returned by CreateUser when the email already has an
	// account.
	ErrEmailInUse = errors.New("email already in use")
)
