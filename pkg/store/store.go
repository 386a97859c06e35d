package store

import (
	"errors"

	"bookshop/pkg/domain"
)

var (
	// ErrBookNotFound is returned when an ISBN is absent from the catalog.
	ErrBookNotFound = errors.New("book not found")
	// ErrReviewNotFound is returned when a user has no review on a book.
	ErrReviewNotFound = errors.New("review not found")
)

// Store defines persistence operations for the catalog and the user registry.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUsername(username string) (bool, error)
	GetUser(username string) (domain.User, bool, error)

	// catalog
	ListBooks() (map[string]domain.Book, error)
	GetBook(isbn string) (domain.Book, bool, error)
	FindByAuthor(author string) ([]domain.Book, error)
	FindByTitle(title string) ([]domain.Book, error)

	// reviews
	SetReview(isbn, username, review string) (map[string]string, error)
	DeleteReview(isbn, username string) (map[string]string, error)
}

// SessionStore issues and resolves session tokens.
type SessionStore interface {
	NewSession(username string) (string, error)
	GetUsernameByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
