package repositories

import (
	"context"
	"errors"
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/core/domain"

	"gorm.io/gorm"
)

// BorrowRepository handles borrow ledger data access.
// The borrow and return paths are the sole writers of Book.available:
// the flag is only ever flipped inside the same transaction as the
// ledger mutation that changes the underlying truth.
type BorrowRepository struct {
	db *gorm.DB
}

// NewBorrowRepository creates a new borrow repository
func NewBorrowRepository(db *gorm.DB) *BorrowRepository {
	return &BorrowRepository{db: db}
}

// BorrowFilter narrows List results. Filters compose with AND.
type BorrowFilter struct {
	// IncludeReturned widens the listing to closed records. When false,
	// only open records (returned_at IS NULL) are included.
	IncludeReturned bool
	MemberID        *uint
	BookID          *uint
}

// List lists borrow records with pagination and optional filters,
// ordered by borrowed_at descending (most recent first).
func (r *BorrowRepository) List(ctx context.Context, filter BorrowFilter, offset, limit int) ([]*models.BorrowRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BorrowRecord{})

	if !filter.IncludeReturned {
		query = query.Where("returned_at IS NULL")
	}
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.BookID != nil {
		query = query.Where("book_id = ?", *filter.BookID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []*models.BorrowRecord
	err := query.
		Preload("Book").
		Preload("Member").
		Order("borrowed_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error

	return records, total, err
}

// GetByID gets a borrow record by ID with book and member loaded
func (r *BorrowRepository) GetByID(ctx context.Context, id uint) (*models.BorrowRecord, error) {
	var record models.BorrowRecord
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Member").
		First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// CountOpenByBookID counts open borrow records for a book
func (r *BorrowRepository) CountOpenByBookID(ctx context.Context, bookID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Where("book_id = ? AND returned_at IS NULL", bookID).
		Count(&count).Error
	return count, err
}

// Borrow creates an open borrow record and marks the book unavailable
// as a single transaction. The availability flip is a conditional
// update guarded on available = true, so two racing borrows on the
// same book resolve to exactly one success: the loser matches zero
// rows and gets domain.ErrBookNotAvailable with nothing written.
func (r *BorrowRepository) Borrow(ctx context.Context, bookID, memberID uint, borrowedAt time.Time) (*models.BorrowRecord, error) {
	record := &models.BorrowRecord{
		BookID:     bookID,
		MemberID:   memberID,
		BorrowedAt: borrowedAt,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Book{}).
			Where("id = ? AND available = ?", bookID, true).
			Update("available", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrBookNotAvailable
		}

		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// Return closes an open borrow record and marks the book available
// again, as a single transaction. Closing is a conditional update
// guarded on returned_at IS NULL: a second return of the same record
// matches zero rows and gets domain.ErrAlreadyReturned without
// touching returned_at or the book.
func (r *BorrowRepository) Return(ctx context.Context, id uint, returnedAt time.Time) (*models.BorrowRecord, error) {
	var record models.BorrowRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBorrowNotFound
			}
			return err
		}

		res := tx.Model(&models.BorrowRecord{}).
			Where("id = ? AND returned_at IS NULL", id).
			Update("returned_at", returnedAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyReturned
		}
		record.ReturnedAt = &returnedAt

		return tx.Model(&models.Book{}).
			Where("id = ?", record.BookID).
			Update("available", true).Error
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}
