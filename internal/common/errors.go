// Package common holds the error taxonomy shared by the store, the chat
// protocol and the transport layers.
package common

import "errors"

var (
	// repository errors
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// request errors
	ErrValidation = errors.New("validation error")

	// ErrUnauthenticated is returned when a credential is missing, invalid or
	// does not match the identity a request claims to act as.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when an authenticated identity acts on a
	// resource it does not own or belong to.
	ErrForbidden = errors.New("not authorized")
)
