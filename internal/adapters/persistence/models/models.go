package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Catalog Tables
// ============================================================

// Book represents books table
type Book struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:255;not null;index" json:"title"`
	Author        string    `gorm:"size:255;not null;index" json:"author"`
	PublishedYear *int      `json:"published_year"`
	Available     bool      `gorm:"default:true" json:"available"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// BookSummary DTO embedded in borrow responses
type BookSummary struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear *int   `json:"published_year,omitempty"`
}

func (b *Book) ToSummary() *BookSummary {
	return &BookSummary{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		PublishedYear: b.PublishedYear,
	}
}

// Member represents members table
type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;index" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone     *string   `gorm:"size:50" json:"phone"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}

// MemberSummary DTO embedded in borrow responses
type MemberSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (m *Member) ToSummary() *MemberSummary {
	return &MemberSummary{
		ID:    m.ID,
		Name:  m.Name,
		Email: m.Email,
	}
}

// ============================================================
// Ledger Table
// ============================================================

// BorrowRecord represents borrow_records table.
// Append-mostly: records are created by borrow, closed once by return,
// and never deleted through normal operation. BookID and MemberID are
// immutable after creation. ReturnedAt == nil means the book is out.
type BorrowRecord struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BookID     uint       `gorm:"not null;index" json:"book_id"`
	MemberID   uint       `gorm:"not null;index" json:"member_id"`
	BorrowedAt time.Time  `gorm:"not null;index" json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at"`

	// Relations
	Book   *Book   `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

func (BorrowRecord) TableName() string {
	return "borrow_records"
}

// IsReturned reports whether the record is closed
func (br *BorrowRecord) IsReturned() bool {
	return br.ReturnedAt != nil
}

// BorrowResponse DTO with expanded book/member summaries for display
type BorrowResponse struct {
	ID         uint           `json:"id"`
	BookID     uint           `json:"book_id"`
	MemberID   uint           `json:"member_id"`
	BorrowedAt time.Time      `json:"borrowed_at"`
	ReturnedAt *time.Time     `json:"returned_at"`
	Book       *BookSummary   `json:"book,omitempty"`
	Member     *MemberSummary `json:"member,omitempty"`
}

func (br *BorrowRecord) ToResponse() *BorrowResponse {
	resp := &BorrowResponse{
		ID:         br.ID,
		BookID:     br.BookID,
		MemberID:   br.MemberID,
		BorrowedAt: br.BorrowedAt,
		ReturnedAt: br.ReturnedAt,
	}

	if br.Book != nil {
		resp.Book = br.Book.ToSummary()
	}
	if br.Member != nil {
		resp.Member = br.Member.ToSummary()
	}

	return resp
}

// ============================================================
// Auth Tables
// ============================================================

// User represents users table (staff accounts, not library members)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'LIBRARIAN'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// User roles
const (
	RoleAdmin     = "ADMIN"
	RoleLibrarian = "LIBRARIAN"
)

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Catalog
		&Book{},
		&Member{},
		// Ledger
		&BorrowRecord{},
		// Auth
		&User{},
		&RefreshToken{},
	)
}
