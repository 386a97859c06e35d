package store

import (
	"strings"
	"sync"

	"bookshop/pkg/domain"
)

// MemoryStore keeps the catalog and user registry in-process.
type MemoryStore struct {
	mu    sync.RWMutex
	books map[string]domain.Book
	isbns []string // insertion order of catalog keys
	users map[string]domain.User
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		books: make(map[string]domain.Book),
		users: make(map[string]domain.User),
	}
}

// NewSeededMemoryStore initializes a memory store pre-populated with the
// default catalog.
func NewSeededMemoryStore() *MemoryStore {
	m := NewMemoryStore()
	for _, seed := range defaultCatalog {
		m.SaveBook(seed.isbn, domain.Book{Author: seed.author, Title: seed.title})
	}
	return m
}

// SaveBook stores or replaces a catalog entry under the given ISBN.
func (m *MemoryStore) SaveBook(isbn string, b domain.Book) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.Reviews == nil {
		b.Reviews = make(map[string]string)
	}
	b.ISBN = ""
	if _, exists := m.books[isbn]; !exists {
		m.isbns = append(m.isbns, isbn)
	}
	m.books[isbn] = b
}

// SaveUser registers a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Username] = u
	return nil
}

// HasUsername checks if a username is already registered.
func (m *MemoryStore) HasUsername(username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[username]
	return ok, nil
}

// GetUser looks up a user by username.
func (m *MemoryStore) GetUser(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	return u, ok, nil
}

// ListBooks returns the full catalog keyed by ISBN.
func (m *MemoryStore) ListBooks() (map[string]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make(map[string]domain.Book, len(m.books))
	for isbn, b := range m.books {
		res[isbn] = copyBook(b)
	}
	return res, nil
}

// GetBook retrieves a catalog entry by ISBN.
func (m *MemoryStore) GetBook(isbn string) (domain.Book, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[isbn]
	if !ok {
		return domain.Book{}, false, nil
	}
	return copyBook(b), true, nil
}

// FindByAuthor returns catalog entries whose author matches case-insensitively.
func (m *MemoryStore) FindByAuthor(author string) ([]domain.Book, error) {
	return m.find(func(b domain.Book) bool {
		return strings.EqualFold(b.Author, author)
	})
}

// FindByTitle returns catalog entries whose title matches case-insensitively.
func (m *MemoryStore) FindByTitle(title string) ([]domain.Book, error) {
	return m.find(func(b domain.Book) bool {
		return strings.EqualFold(b.Title, title)
	})
}

func (m *MemoryStore) find(match func(domain.Book) bool) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Book, 0)
	for _, isbn := range m.isbns {
		b, ok := m.books[isbn]
		if !ok || !match(b) {
			continue
		}
		found := copyBook(b)
		found.ISBN = isbn
		res = append(res, found)
	}
	return res, nil
}

// SetReview adds or replaces the user's review on a book. Last writer wins.
func (m *MemoryStore) SetReview(isbn, username, review string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[isbn]
	if !ok {
		return nil, ErrBookNotFound
	}
	b.Reviews[username] = review
	return copyReviews(b.Reviews), nil
}

// DeleteReview removes exactly the user's own review entry.
func (m *MemoryStore) DeleteReview(isbn, username string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[isbn]
	if !ok {
		return nil, ErrBookNotFound
	}
	if _, ok := b.Reviews[username]; !ok {
		return nil, ErrReviewNotFound
	}
	delete(b.Reviews, username)
	return copyReviews(b.Reviews), nil
}

func copyBook(b domain.Book) domain.Book {
	b.Reviews = copyReviews(b.Reviews)
	return b
}

func copyReviews(reviews map[string]string) map[string]string {
	out := make(map[string]string, len(reviews))
	for user, text := range reviews {
		out[user] = text
	}
	return out
}
