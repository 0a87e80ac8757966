package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"

	"gorm.io/gorm"
)

const (
	maxTitleLen  = 255
	maxAuthorLen = 255
	minBookYear  = 1000
)

// BookService handles book catalog business logic
type BookService struct {
	bookRepo *repositories.BookRepository
}

// NewBookService creates a new book service
func NewBookService(bookRepo *repositories.BookRepository) *BookService {
	return &BookService{bookRepo: bookRepo}
}

// BookInput represents create/update book input
type BookInput struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear *int   `json:"published_year,omitempty"`
}

// Create creates a new book. New books start available.
func (s *BookService) Create(ctx context.Context, input *BookInput) (*models.Book, error) {
	if err := validateBookInput(input); err != nil {
		return nil, err
	}

	book := &models.Book{
		Title:         strings.TrimSpace(input.Title),
		Author:        strings.TrimSpace(input.Author),
		PublishedYear: input.PublishedYear,
		Available:     true,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

// GetByID gets a book by ID
func (s *BookService) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

// Update updates a book's title, author and published year.
// The available flag is derived from the borrow ledger and cannot be
// set through edits.
func (s *BookService) Update(ctx context.Context, id uint, input *BookInput) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}

	if err := validateBookInput(input); err != nil {
		return nil, err
	}

	book.Title = strings.TrimSpace(input.Title)
	book.Author = strings.TrimSpace(input.Author)
	book.PublishedYear = input.PublishedYear

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

// List lists books with pagination. A page past the end of the range
// returns an empty set with the total, not an error.
func (s *BookService) List(ctx context.Context, page, limit int) (*ListOutput[*models.Book], error) {
	page, limit = clampPagination(page, limit)

	books, total, err := s.bookRepo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	return newListOutput(books, total, page, limit), nil
}

// validateBookInput validates book fields against catalog rules
func validateBookInput(input *BookInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return domain.NewValidationError("title", "title is required")
	}
	if len(title) > maxTitleLen {
		return domain.NewValidationError("title", "title must be at most 255 characters")
	}

	author := strings.TrimSpace(input.Author)
	if author == "" {
		return domain.NewValidationError("author", "author is required")
	}
	if len(author) > maxAuthorLen {
		return domain.NewValidationError("author", "author must be at most 255 characters")
	}

	if input.PublishedYear != nil {
		year := *input.PublishedYear
		if year < minBookYear || year > time.Now().UTC().Year() {
			return domain.NewValidationError("published_year", "published year must be between 1000 and the current year")
		}
	}

	return nil
}
