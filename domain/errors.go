package domain

import "errors"

// Store errors
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateTitle = errors.New("a post with this title already exists")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("wrong email or password")
	ErrNotAuthenticated   = errors.New("authentication required")
	ErrNotAuthorized      = errors.New("you are not allowed to do that")
)
