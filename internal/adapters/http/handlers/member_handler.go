package handlers

import (
	"errors"
	"strconv"

	"shelftrack/internal/core/domain"
	"shelftrack/internal/core/services"
	"shelftrack/internal/pkg/pagination"
	"shelftrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler handles member registry endpoints
type MemberHandler struct {
	memberService *services.MemberService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
	}
}

// MemberRequest represents a create/update member request body
type MemberRequest struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Phone  *string `json:"phone,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// Create registers a new member
// @Summary Create member
// @Description Register a new library member
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body MemberRequest true "Member data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /members [post]
func (h *MemberHandler) Create(c *fiber.Ctx) error {
	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.MemberInput{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Active: req.Active,
	}

	member, err := h.memberService.Create(c.Context(), input)
	if err != nil {
		if ve, ok := domain.IsValidation(err); ok {
			return response.BadRequest(c, ve.Error())
		}
		return response.InternalServerError(c, "Failed to create member")
	}

	return response.Created(c, "Member created successfully", fiber.Map{
		"member": member,
	})
}

// List lists members
// @Summary List members
// @Description List registered members with pagination
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /members [get]
func (h *MemberHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	result, err := h.memberService.List(c.Context(), params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list members")
	}

	return response.Success(c, "Members retrieved successfully", result)
}

// GetByID gets a member by ID
// @Summary Get member by ID
// @Description Get a specific member
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [get]
func (h *MemberHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid member ID")
	}

	member, err := h.memberService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return response.NotFound(c, "Member not found")
		}
		return response.InternalServerError(c, "Failed to get member")
	}

	return response.Success(c, "Member retrieved successfully", fiber.Map{
		"member": member,
	})
}

// Update updates a member
// @Summary Update member
// @Description Update member details, including the active flag
// @Tags Members
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Member ID"
// @Param body body MemberRequest true "Member data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /members/{id} [put]
func (h *MemberHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid member ID")
	}

	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.MemberInput{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Active: req.Active,
	}

	member, err := h.memberService.Update(c.Context(), uint(id), input)
	if err != nil {
		if ve, ok := domain.IsValidation(err); ok {
			return response.BadRequest(c, ve.Error())
		}
		if errors.Is(err, domain.ErrMemberNotFound) {
			return response.NotFound(c, "Member not found")
		}
		return response.InternalServerError(c, "Failed to update member")
	}

	return response.Success(c, "Member updated successfully", fiber.Map{
		"member": member,
	})
}
