package services

import (
	"context"
	"errors"
	"log"
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"

	"gorm.io/gorm"
)

// BorrowService enforces the borrow/return lifecycle: at most one open
// borrow record per book, with Book.available kept consistent with the
// ledger inside a single transaction on every state change.
type BorrowService struct {
	borrowRepo *repositories.BorrowRepository
	bookRepo   *repositories.BookRepository
	memberRepo *repositories.MemberRepository
}

// NewBorrowService creates a new borrow service
func NewBorrowService(
	borrowRepo *repositories.BorrowRepository,
	bookRepo *repositories.BookRepository,
	memberRepo *repositories.MemberRepository,
) *BorrowService {
	return &BorrowService{
		borrowRepo: borrowRepo,
		bookRepo:   bookRepo,
		memberRepo: memberRepo,
	}
}

// BorrowInput represents a borrow request
type BorrowInput struct {
	BookID   uint `json:"book_id"`
	MemberID uint `json:"member_id"`
}

// Borrow lends a book to a member. The member must exist and be
// active; the book must exist and be available. The availability
// check-and-flip happens atomically in the repository transaction, so
// concurrent borrows of the same book yield exactly one success.
func (s *BorrowService) Borrow(ctx context.Context, input *BorrowInput) (*models.BorrowRecord, error) {
	if _, err := s.bookRepo.GetByID(ctx, input.BookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}

	member, err := s.memberRepo.GetByID(ctx, input.MemberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	if !member.Active {
		return nil, domain.ErrMemberInactive
	}

	record, err := s.borrowRepo.Borrow(ctx, input.BookID, input.MemberID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	log.Printf("📚 Book %d borrowed by member %d (record %d)", input.BookID, input.MemberID, record.ID)
	return record, nil
}

// Return closes an open borrow record and makes the book available
// again. Returning an already-closed record fails with
// domain.ErrAlreadyReturned and alters nothing.
func (s *BorrowService) Return(ctx context.Context, borrowID uint) (*models.BorrowRecord, error) {
	record, err := s.borrowRepo.Return(ctx, borrowID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	log.Printf("📚 Borrow record %d returned (book %d)", record.ID, record.BookID)

	// Reload with book/member for the detailed response
	return s.borrowRepo.GetByID(ctx, record.ID)
}

// GetByID gets a borrow record by ID with book and member details
func (s *BorrowService) GetByID(ctx context.Context, id uint) (*models.BorrowRecord, error) {
	record, err := s.borrowRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBorrowNotFound
		}
		return nil, err
	}
	return record, nil
}

// ListBorrowsInput represents ledger listing input
type ListBorrowsInput struct {
	Page  int
	Limit int
	// IncludeReturned keeps closed records in the listing (the HTTP
	// default). When false, only open records are listed.
	IncludeReturned bool
	MemberID        *uint
	BookID          *uint
}

// List lists borrow records with pagination and optional filters,
// most recently borrowed first
func (s *BorrowService) List(ctx context.Context, input *ListBorrowsInput) (*ListOutput[*models.BorrowResponse], error) {
	page, limit := clampPagination(input.Page, input.Limit)

	filter := repositories.BorrowFilter{
		IncludeReturned: input.IncludeReturned,
		MemberID:        input.MemberID,
		BookID:          input.BookID,
	}

	records, total, err := s.borrowRepo.List(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	items := make([]*models.BorrowResponse, 0, len(records))
	for _, record := range records {
		items = append(items, record.ToResponse())
	}

	return newListOutput(items, total, page, limit), nil
}
