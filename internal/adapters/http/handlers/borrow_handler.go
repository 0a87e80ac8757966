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

// BorrowHandler handles lending ledger endpoints
type BorrowHandler struct {
	borrowService *services.BorrowService
}

// NewBorrowHandler creates a new borrow handler
func NewBorrowHandler(borrowService *services.BorrowService) *BorrowHandler {
	return &BorrowHandler{
		borrowService: borrowService,
	}
}

// BorrowRequest represents a borrow request body
type BorrowRequest struct {
	BookID   uint `json:"book_id"`
	MemberID uint `json:"member_id"`
}

// Borrow checks a book out to a member
// @Summary Borrow book
// @Description Check a book out to a member. Fails with 409 if the book is already borrowed.
// @Tags Borrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BorrowRequest true "Borrow data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /borrow [post]
func (h *BorrowHandler) Borrow(c *fiber.Ctx) error {
	var req BorrowRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.BookID == 0 {
		return response.BadRequest(c, "Book ID is required")
	}
	if req.MemberID == 0 {
		return response.BadRequest(c, "Member ID is required")
	}

	input := &services.BorrowInput{
		BookID:   req.BookID,
		MemberID: req.MemberID,
	}

	record, err := h.borrowService.Borrow(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			return response.NotFound(c, "Book not found")
		case errors.Is(err, domain.ErrMemberNotFound):
			return response.NotFound(c, "Member not found")
		case errors.Is(err, domain.ErrBookNotAvailable):
			return response.Conflict(c, "Book is already borrowed")
		case errors.Is(err, domain.ErrMemberInactive):
			return response.Conflict(c, "Member account is inactive")
		default:
			return response.InternalServerError(c, "Failed to borrow book")
		}
	}

	return response.Created(c, "Book borrowed successfully", fiber.Map{
		"borrow": record.ToResponse(),
	})
}

// Return marks a borrow record as returned
// @Summary Return book
// @Description Mark an open borrow record as returned. Fails with 409 if already returned.
// @Tags Borrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrow record ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /borrow/{id}/return [patch]
func (h *BorrowHandler) Return(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid borrow record ID")
	}

	record, err := h.borrowService.Return(c.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBorrowNotFound):
			return response.NotFound(c, "Borrow record not found")
		case errors.Is(err, domain.ErrAlreadyReturned):
			return response.Conflict(c, "Book has already been returned")
		default:
			return response.InternalServerError(c, "Failed to return book")
		}
	}

	return response.Success(c, "Book returned successfully", fiber.Map{
		"borrow": record.ToResponse(),
	})
}

// List lists borrow records
// @Summary List borrow records
// @Description List the lending ledger. returned=false narrows to open records only.
// @Tags Borrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param returned query bool false "Include returned records" default(true)
// @Param member_id query int false "Filter by member ID"
// @Param book_id query int false "Filter by book ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /borrow [get]
func (h *BorrowHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	input := &services.ListBorrowsInput{
		Page:            params.Page,
		Limit:           params.Limit,
		IncludeReturned: true,
	}

	if returned := c.Query("returned"); returned != "" {
		include, err := strconv.ParseBool(returned)
		if err != nil {
			return response.BadRequest(c, "Invalid returned filter")
		}
		input.IncludeReturned = include
	}

	if memberID := c.Query("member_id"); memberID != "" {
		id, err := strconv.ParseUint(memberID, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid member ID filter")
		}
		uid := uint(id)
		input.MemberID = &uid
	}

	if bookID := c.Query("book_id"); bookID != "" {
		id, err := strconv.ParseUint(bookID, 10, 32)
		if err != nil {
			return response.BadRequest(c, "Invalid book ID filter")
		}
		uid := uint(id)
		input.BookID = &uid
	}

	result, err := h.borrowService.List(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to list borrow records")
	}

	return response.Success(c, "Borrow records retrieved successfully", result)
}

// GetByID gets a borrow record by ID
// @Summary Get borrow record by ID
// @Description Get a specific borrow record with book and member details
// @Tags Borrow
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Borrow record ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /borrow/{id} [get]
func (h *BorrowHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid borrow record ID")
	}

	record, err := h.borrowService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrBorrowNotFound) {
			return response.NotFound(c, "Borrow record not found")
		}
		return response.InternalServerError(c, "Failed to get borrow record")
	}

	return response.Success(c, "Borrow record retrieved successfully", fiber.Map{
		"borrow": record.ToResponse(),
	})
}
