package repositories

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/core/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated SQLite database for one test.
// _txlock=immediate makes concurrent write transactions queue on the
// write lock instead of failing, which matches how racing borrows
// serialize in production.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func createTestBook(t *testing.T, db *gorm.DB, title string) *models.Book {
	t.Helper()

	book := &models.Book{Title: title, Author: "Test Author", Available: true}
	require.NoError(t, db.Create(book).Error)
	return book
}

func createTestMember(t *testing.T, db *gorm.DB, email string) *models.Member {
	t.Helper()

	member := &models.Member{Name: "Test Member", Email: email, Active: true}
	require.NoError(t, db.Create(member).Error)
	return member
}

func TestBorrowMarksBookUnavailable(t *testing.T) {
	db := newTestDB(t)
	repo := NewBorrowRepository(db)
	ctx := context.Background()

	book := createTestBook(t, db, "The Go Programming Language")
	member := createTestMember(t, db, "reader@example.com")

	record, err := repo.Borrow(ctx, book.ID, member.ID, time.Now().UTC())
	require.NoError(t, err)
	require.NotZero(t, record.ID)
	require.Nil(t, record.ReturnedAt)

	var stored models.Book
	require.NoError(t, db.First(&stored, book.ID).Error)
	require.False(t, stored.Available)

	open, err := repo.CountOpenByBookID(ctx, book.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, open)
}

func TestBorrowConflictWhenAlreadyBorrowed(t *testing.T) {
	db := newTestDB(t)
	repo := NewBorrowRepository(db)
	ctx := context.Background()

	book := createTestBook(t, db, "Dune")
	first := createTestMember(t, db, "first@example.com")
	second := createTestMember(t, db, "second@example.com")

	_, err := repo.Borrow(ctx, book.ID, first.ID, time.Now().UTC())
	require.NoError(t, err)

	_, err = repo.Borrow(ctx, book.ID, second.ID, time.Now().UTC())
	require.ErrorIs(t, err, domain.ErrBookNotAvailable)

	// The losing attempt must not leave a ledger entry behind
	open, err := repo.CountOpenByBookID(ctx, book.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, open)
}

func TestReturnReopensAvailability(t *testing.T) {
	db := newTestDB(t)
	repo := NewBorrowRepository(db)
	ctx := context.Background()

	book := createTestBook(t, db, "Neuromancer")
	member := createTestMember(t, db, "reader@example.com")

	record, err := repo.Borrow(ctx, book.ID, member.ID, time.Now().UTC())
	require.NoError(t, err)

	returned, err := repo.Return(ctx, record.ID, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnedAt)

	var stored models.Book
	require.NoError(t, db.First(&stored, book.ID).Error)
	require.True(t, stored.Available)

	// The same copy can go out again after a return
	_, err = repo.Borrow(ctx, book.ID, member.ID, time.Now().UTC())
	require.NoError(t, err)
}

func TestReturnTwiceConflicts(t *testing.T) {
	db := newTestDB(t)
	repo := NewBorrowRepository(db)
	ctx := context.Background()

	book := createTestBook(t, db, "Hyperion")
	member := createTestMember(t, db, "reader@example.com")

	record, err := repo.Borrow(ctx, book.ID, member.ID, time.Now().UTC())
	require.NoError(t, err)

	first, err := repo.Return(ctx, record.ID, time.Now().UTC())
	require.NoError(t, err)

	_, err = repo.Return(ctx, record.ID, time.Now().UTC())
	require.ErrorIs(t, err, domain.ErrAlreadyReturned)

	// The original return timestamp stays untouched
	reloaded, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ReturnedAt)
	require.WithinDuration(t, *first.ReturnedAt, *reloaded.ReturnedAt, time.Second)
}

func TestReturnNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewBorrowRepository(db)

	_, err := repo.Return(context.Background(), 9999, time.Now().UTC())
	require.ErrorIs(t, err, domain.ErrBorrowNotFound)
}

func TestConcurrentBorrowsSingleWinner(t *testing.T) {
	db := newTestDB(t)
	repo := NewBorrowRepository(db)
	ctx := context.Background()

	book := createTestBook(t, db, "Snow Crash")

	const attempts = 8
	members := make([]*models.Member, attempts)
	for i := range members {
		members[i] = createTestMember(t, db, "m"+string(rune('a'+i))+"@example.com")
	}

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Borrow(ctx, book.ID, members[i].ID, time.Now().UTC())
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrBookNotAvailable):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	require.Equal(t, 1, successes)
	require.Equal(t, attempts-1, conflicts)

	open, err := repo.CountOpenByBookID(ctx, book.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, open)
}

func TestConcurrentReturnsSingleWinner(t *testing.T) {
	db := newTestDB(t)
	repo := NewBorrowRepository(db)
	ctx := context.Background()

	book := createTestBook(t, db, "The Player of Games")
	member := createTestMember(t, db, "reader@example.com")

	record, err := repo.Borrow(ctx, book.ID, member.ID, time.Now().UTC())
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Return(ctx, record.ID, time.Now().UTC())
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrAlreadyReturned):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	require.Equal(t, 1, successes)
	require.Equal(t, attempts-1, conflicts)

	// The record closed exactly once and the book is available again
	reloaded, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ReturnedAt)

	var stored models.Book
	require.NoError(t, db.First(&stored, book.ID).Error)
	require.True(t, stored.Available)
}

func TestListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewBorrowRepository(db)
	ctx := context.Background()

	bookA := createTestBook(t, db, "Book A")
	bookB := createTestBook(t, db, "Book B")
	member := createTestMember(t, db, "reader@example.com")
	other := createTestMember(t, db, "other@example.com")

	recA, err := repo.Borrow(ctx, bookA.ID, member.ID, time.Now().UTC().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = repo.Borrow(ctx, bookB.ID, other.ID, time.Now().UTC().Add(-1*time.Hour))
	require.NoError(t, err)

	_, err = repo.Return(ctx, recA.ID, time.Now().UTC())
	require.NoError(t, err)

	// Default: open records only
	open, total, err := repo.List(ctx, BorrowFilter{}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, open, 1)
	require.Equal(t, bookB.ID, open[0].BookID)
	require.NotNil(t, open[0].Book)
	require.NotNil(t, open[0].Member)

	// Include returned: both, most recent borrow first
	all, total, err := repo.List(ctx, BorrowFilter{IncludeReturned: true}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, all, 2)
	require.Equal(t, bookB.ID, all[0].BookID)
	require.Equal(t, bookA.ID, all[1].BookID)

	// Filter by member
	byMember, total, err := repo.List(ctx, BorrowFilter{IncludeReturned: true, MemberID: &member.ID}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, member.ID, byMember[0].MemberID)

	// Filter by book
	byBook, total, err := repo.List(ctx, BorrowFilter{IncludeReturned: true, BookID: &bookB.ID}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, bookB.ID, byBook[0].BookID)
}
