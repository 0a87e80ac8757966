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

// BookHandler handles catalog endpoints
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler creates a new book handler
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{
		bookService: bookService,
	}
}

// BookRequest represents a create/update book request body
type BookRequest struct {
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear *int   `json:"published_year,omitempty"`
}

// Create registers a new book
// @Summary Create book
// @Description Register a new book in the catalog
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BookRequest true "Book data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /books [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req BookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.BookInput{
		Title:         req.Title,
		Author:        req.Author,
		PublishedYear: req.PublishedYear,
	}

	book, err := h.bookService.Create(c.Context(), input)
	if err != nil {
		if ve, ok := domain.IsValidation(err); ok {
			return response.BadRequest(c, ve.Error())
		}
		return response.InternalServerError(c, "Failed to create book")
	}

	return response.Created(c, "Book created successfully", fiber.Map{
		"book": book,
	})
}

// List lists books
// @Summary List books
// @Description List catalog books with pagination
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /books [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	result, err := h.bookService.List(c.Context(), params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list books")
	}

	return response.Success(c, "Books retrieved successfully", result)
}

// GetByID gets a book by ID
// @Summary Get book by ID
// @Description Get a specific catalog book
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) GetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	book, err := h.bookService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to get book")
	}

	return response.Success(c, "Book retrieved successfully", fiber.Map{
		"book": book,
	})
}

// Update updates a book's descriptive fields
// @Summary Update book
// @Description Update book title, author and published year. Availability is never set here.
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param body body BookRequest true "Book data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [put]
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid book ID")
	}

	var req BookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.BookInput{
		Title:         req.Title,
		Author:        req.Author,
		PublishedYear: req.PublishedYear,
	}

	book, err := h.bookService.Update(c.Context(), uint(id), input)
	if err != nil {
		if ve, ok := domain.IsValidation(err); ok {
			return response.BadRequest(c, ve.Error())
		}
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to update book")
	}

	return response.Success(c, "Book updated successfully", fiber.Map{
		"book": book,
	})
}
