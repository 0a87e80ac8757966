package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/core/domain"

	"gorm.io/gorm"
)

const (
	minMemberNameLen = 2
	minPhoneLen      = 10
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^[0-9+\-() ]+$`)
)

// MemberService handles member business logic
type MemberService struct {
	memberRepo *repositories.MemberRepository
}

// NewMemberService creates a new member service
func NewMemberService(memberRepo *repositories.MemberRepository) *MemberService {
	return &MemberService{memberRepo: memberRepo}
}

// MemberInput represents create/update member input
type MemberInput struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Phone  *string `json:"phone,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// Create creates a new member. Active defaults to true.
func (s *MemberService) Create(ctx context.Context, input *MemberInput) (*models.Member, error) {
	if err := validateMemberInput(input); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(input.Email)
	taken, err := s.memberRepo.ExistsByEmail(ctx, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.NewValidationError("email", "email is already registered")
	}

	member := &models.Member{
		Name:   strings.TrimSpace(input.Name),
		Email:  email,
		Phone:  normalizePhone(input.Phone),
		Active: true,
	}
	if input.Active != nil {
		member.Active = *input.Active
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, err
	}

	return member, nil
}

// GetByID gets a member by ID
func (s *MemberService) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// Update updates a member, including toggling active
func (s *MemberService) Update(ctx context.Context, id uint, input *MemberInput) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}

	if err := validateMemberInput(input); err != nil {
		return nil, err
	}

	email := strings.TrimSpace(input.Email)
	taken, err := s.memberRepo.ExistsByEmail(ctx, email, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.NewValidationError("email", "email is already registered")
	}

	member.Name = strings.TrimSpace(input.Name)
	member.Email = email
	member.Phone = normalizePhone(input.Phone)
	if input.Active != nil {
		member.Active = *input.Active
	}

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, err
	}

	return member, nil
}

// List lists members with pagination
func (s *MemberService) List(ctx context.Context, page, limit int) (*ListOutput[*models.Member], error) {
	page, limit = clampPagination(page, limit)

	members, total, err := s.memberRepo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}

	return newListOutput(members, total, page, limit), nil
}

// validateMemberInput validates member fields
func validateMemberInput(input *MemberInput) error {
	name := strings.TrimSpace(input.Name)
	if len(name) < minMemberNameLen {
		return domain.NewValidationError("name", "name must be at least 2 characters")
	}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		return domain.NewValidationError("email", "email is required")
	}
	if !emailPattern.MatchString(email) {
		return domain.NewValidationError("email", "email format is invalid")
	}

	if input.Phone != nil && strings.TrimSpace(*input.Phone) != "" {
		phone := strings.TrimSpace(*input.Phone)
		if len(phone) < minPhoneLen {
			return domain.NewValidationError("phone", "phone must be at least 10 characters")
		}
		if !phonePattern.MatchString(phone) {
			return domain.NewValidationError("phone", "phone may only contain digits, spaces, +, - and parentheses")
		}
	}

	return nil
}

// normalizePhone trims the phone number and drops empty values
func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*phone)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
