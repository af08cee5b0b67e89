package app

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not match.
	// The message is shown to end users and must not enable account enumeration.
	ErrInvalidCredentials = errors.New("Incorrect email address or password")

	ErrEmailAndPasswordRequired = errors.New("email and password required")
	ErrEmailAlreadyExists       = errors.New("email already registered")
	ErrISBNAlreadyExists        = errors.New("isbn already registered")

	// ErrInvalidInput wraps field-level validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBookNotFound covers both absent books and books outside the
	// caller's visible set, so reads never leak existence.
	ErrBookNotFound = errors.New("book not found")
	ErrUserNotFound = errors.New("user not found")

	// ErrForbidden is an explicit authorization failure on a write attempt,
	// distinct from not-found.
	ErrForbidden = errors.New("forbidden")
)
