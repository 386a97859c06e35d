package app

import "errors"

var (
	// ErrCredentialsRequired is returned when username or password is missing.
	ErrCredentialsRequired = errors.New("Username and password are required")

	// ErrInvalidUsername is returned when the username is empty after trimming.
	ErrInvalidUsername = errors.New("Invalid username")

	// ErrUsernameTaken is returned when registering a duplicate username.
	ErrUsernameTaken = errors.New("Username already exists")

	// ErrInvalidCredentials is returned when no user matches both username and
	// password exactly.
	ErrInvalidCredentials = errors.New("Invalid username or password")

	// ErrBookNotFound is returned when an ISBN is absent from the catalog.
	ErrBookNotFound = errors.New("Book not found")

	// ErrReviewRequired is returned when the review text is missing or blank.
	ErrReviewRequired = errors.New("Review query parameter is required")

	// ErrReviewNotFound is returned when deleting a review the caller never wrote.
	ErrReviewNotFound = errors.New("No review by this user to delete")
)
