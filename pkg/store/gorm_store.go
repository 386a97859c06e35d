package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookshop/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &BookModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := UserModel{Username: u.Username, Password: u.Password}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password"}),
	}).Create(&model).Error
}

// HasUsername checks if a username is already registered.
func (s *GormStore) HasUsername(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUser looks up a user by username.
func (s *GormStore) GetUser(username string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "username = ?", username).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return domain.User{Username: model.Username, Password: model.Password}, true, nil
}

// SaveBook stores or replaces a catalog entry.
func (s *GormStore) SaveBook(isbn string, b domain.Book) error {
	model := BookModel{
		ISBN:    isbn,
		Author:  b.Author,
		Title:   b.Title,
		Reviews: reviewsToModel(b.Reviews),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "isbn"}},
		DoUpdates: clause.AssignmentColumns([]string{"author", "title", "reviews"}),
	}).Create(&model).Error
}

// ListBooks returns the full catalog keyed by ISBN.
func (s *GormStore) ListBooks() (map[string]domain.Book, error) {
	var models []BookModel
	if err := s.db.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make(map[string]domain.Book, len(models))
	for _, m := range models {
		res[m.ISBN] = domain.Book{
			Author:  m.Author,
			Title:   m.Title,
			Reviews: reviewsFromModel(m.Reviews),
		}
	}
	return res, nil
}

// GetBook retrieves a catalog entry by ISBN.
func (s *GormStore) GetBook(isbn string) (domain.Book, bool, error) {
	model, ok, err := s.getBookModel(isbn)
	if err != nil || !ok {
		return domain.Book{}, ok, err
	}
	return domain.Book{
		Author:  model.Author,
		Title:   model.Title,
		Reviews: reviewsFromModel(model.Reviews),
	}, true, nil
}

// FindByAuthor returns catalog entries whose author matches case-insensitively.
func (s *GormStore) FindByAuthor(author string) ([]domain.Book, error) {
	return s.findBooks("LOWER(author) = LOWER(?)", author)
}

// FindByTitle returns catalog entries whose title matches case-insensitively.
func (s *GormStore) FindByTitle(title string) ([]domain.Book, error) {
	return s.findBooks("LOWER(title) = LOWER(?)", title)
}

func (s *GormStore) findBooks(cond string, arg any) ([]domain.Book, error) {
	var models []BookModel
	if err := s.db.Where(cond, arg).Order("isbn ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Book, 0, len(models))
	for _, m := range models {
		res = append(res, domain.Book{
			ISBN:    m.ISBN,
			Author:  m.Author,
			Title:   m.Title,
			Reviews: reviewsFromModel(m.Reviews),
		})
	}
	return res, nil
}

// SetReview adds or replaces the user's review on a book.
func (s *GormStore) SetReview(isbn, username, review string) (map[string]string, error) {
	model, ok, err := s.getBookModel(isbn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBookNotFound
	}
	if model.Reviews == nil {
		model.Reviews = make(map[string]any)
	}
	model.Reviews[username] = review
	if err := s.db.Model(&BookModel{}).Where("isbn = ?", isbn).Update("reviews", model.Reviews).Error; err != nil {
		return nil, err
	}
	return reviewsFromModel(model.Reviews), nil
}

// DeleteReview removes exactly the user's own review entry.
func (s *GormStore) DeleteReview(isbn, username string) (map[string]string, error) {
	model, ok, err := s.getBookModel(isbn)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBookNotFound
	}
	if _, ok := model.Reviews[username]; !ok {
		return nil, ErrReviewNotFound
	}
	delete(model.Reviews, username)
	if err := s.db.Model(&BookModel{}).Where("isbn = ?", isbn).Update("reviews", model.Reviews).Error; err != nil {
		return nil, err
	}
	return reviewsFromModel(model.Reviews), nil
}

func (s *GormStore) getBookModel(isbn string) (BookModel, bool, error) {
	var model BookModel
	if err := s.db.First(&model, "isbn = ?", isbn).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return BookModel{}, false, nil
		}
		return BookModel{}, false, err
	}
	return model, true, nil
}
