package application

import "errors"

// Service-level error taxonomy. Handlers map these onto HTTP statuses; the
// underlying cause (parse error, constraint name, upstream failure) stays in
// the logs.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	ErrContactNotFound    = errors.New("contact not found")
	ErrContactExists      = errors.New("contact with this email or phone already exists")
	ErrUploadFailed       = errors.New("upload failed")
)
