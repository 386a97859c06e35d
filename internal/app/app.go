package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bookshop/pkg/domain"
	"bookshop/pkg/store"
)

// defaultJWTSecret is the documented fallback used when no secret is
// configured. Known weak by design of the original service.
const defaultJWTSecret = "access"

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL     string
	JWTSecret       string
	SessionTTL      time.Duration
	SessionStrategy string
	RedisAddr       string
	RedisPassword   string
	Store           store.Store
	Sessions        store.SessionStore
}

// App is the core application service wiring together storage and auth logic.
type App struct {
	store    store.Store
	sessions store.SessionStore
}

// New constructs the application with catalog storage and session management.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = store.DefaultSessionTTL
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL != "" {
			var err error
			dataStore, err = store.NewGormStore(cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("init postgres store: %w", err)
			}
		} else {
			dataStore = store.NewSeededMemoryStore()
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		switch strings.ToLower(strings.TrimSpace(cfg.SessionStrategy)) {
		case "redis":
			if strings.TrimSpace(cfg.RedisAddr) == "" {
				return nil, fmt.Errorf("redisAddr is required for redis session strategy")
			}
			sessionStore = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		default:
			secret := cfg.JWTSecret
			if secret == "" {
				secret = defaultJWTSecret
			}
			sessionStore = store.NewJWTSessionStore(secret, cfg.SessionTTL)
		}
	}

	return &App{
		store:    dataStore,
		sessions: sessionStore,
	}, nil
}

// Register appends a new credential pair to the user registry.
func (a *App) Register(username, password string) error {
	if username == "" || password == "" {
		return ErrCredentialsRequired
	}
	if strings.TrimSpace(username) == "" {
		return ErrInvalidUsername
	}
	exists, err := a.store.HasUsername(username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if exists {
		return ErrUsernameTaken
	}
	if err := a.store.SaveUser(domain.User{Username: username, Password: password}); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Login validates credentials by plaintext equality and issues a session token.
func (a *App) Login(username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrCredentialsRequired
	}
	if strings.TrimSpace(username) == "" {
		return "", ErrInvalidUsername
	}
	user, ok, err := a.store.GetUser(username)
	if err != nil {
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok || user.Password != password {
		return "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(username)
	if err != nil {
		return "", fmt.Errorf("issue session token: %w", err)
	}
	return token, nil
}

// UsernameFromToken resolves the authenticated identity from a session token.
func (a *App) UsernameFromToken(token string) (string, bool) {
	username, ok, err := a.sessions.GetUsernameByToken(token)
	if err != nil || !ok {
		return "", false
	}
	return username, true
}

// Catalog returns the entire catalog keyed by ISBN.
func (a *App) Catalog() (map[string]domain.Book, error) {
	return a.store.ListBooks()
}

// BookByISBN returns a single catalog entry including its review map.
func (a *App) BookByISBN(isbn string) (domain.Book, error) {
	book, ok, err := a.store.GetBook(isbn)
	if err != nil {
		return domain.Book{}, fmt.Errorf("fetch book: %w", err)
	}
	if !ok {
		return domain.Book{}, ErrBookNotFound
	}
	return book, nil
}

// BooksByAuthor returns all catalog entries matching the author,
// case-insensitive exact match. An empty result is not an error here;
// the HTTP boundary decides how to render it.
func (a *App) BooksByAuthor(author string) ([]domain.Book, error) {
	return a.store.FindByAuthor(author)
}

// BooksByTitle returns all catalog entries matching the title,
// case-insensitive exact match.
func (a *App) BooksByTitle(title string) ([]domain.Book, error) {
	return a.store.FindByTitle(title)
}

// Reviews returns only a book's review map.
func (a *App) Reviews(isbn string) (map[string]string, error) {
	book, err := a.BookByISBN(isbn)
	if err != nil {
		return nil, err
	}
	return book.Reviews, nil
}

// UpsertReview sets the caller's review on a book, overwriting any prior
// review by the same user, and returns the updated review map.
func (a *App) UpsertReview(isbn, username, review string) (map[string]string, error) {
	if strings.TrimSpace(review) == "" {
		return nil, ErrReviewRequired
	}
	reviews, err := a.store.SetReview(isbn, username, review)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("set review: %w", err)
	}
	return reviews, nil
}

// DeleteReview removes exactly the caller's own review entry and returns the
// updated review map.
func (a *App) DeleteReview(isbn, username string) (map[string]string, error) {
	reviews, err := a.store.DeleteReview(isbn, username)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil, ErrBookNotFound
		}
		if errors.Is(err, store.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("delete review: %w", err)
	}
	return reviews, nil
}
