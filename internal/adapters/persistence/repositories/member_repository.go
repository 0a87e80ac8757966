package repositories

import (
	"context"

	"shelftrack/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// MemberRepository handles member data access
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create creates a new member
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// GetByID gets a member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ExistsByEmail checks if a member with the given email exists,
// excluding the given id (pass 0 for creates)
func (r *MemberRepository) ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("email = ? AND id <> ?", email, excludeID).
		Count(&count).Error
	return count > 0, err
}

// List lists members with pagination, ordered by id ascending
func (r *MemberRepository) List(ctx context.Context, offset, limit int) ([]*models.Member, int64, error) {
	var members []*models.Member
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Member{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&members).Error

	return members, total, err
}

// Update persists changes to a member
func (r *MemberRepository) Update(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).
		Model(member).
		Updates(map[string]interface{}{
			"name":   member.Name,
			"email":  member.Email,
			"phone":  member.Phone,
			"active": member.Active,
		}).Error
}
