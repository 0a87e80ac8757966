package repositories

import (
	"context"

	"shelftrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// BookRepository handles book data access
type BookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

// Create creates a new book
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID gets a book by ID
func (r *BookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List lists books with pagination, ordered by id ascending
func (r *BookRepository) List(ctx context.Context, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&books).Error

	return books, total, err
}

// Update persists changes to a book's editable fields.
// The available flag is owned by the borrow/return transaction and is
// deliberately excluded here.
func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).
		Model(book).
		Select("title", "author", "published_year").
		Updates(map[string]interface{}{
			"title":          book.Title,
			"author":         book.Author,
			"published_year": book.PublishedYear,
		}).Error
}
