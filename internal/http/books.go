package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/studyshelf/internal/database/books"
	"github.com/mrlokans/studyshelf/internal/engine"
	"github.com/mrlokans/studyshelf/internal/entities"
)

type BooksController struct {
	store BookStore
}

func NewBooksController(store BookStore) *BooksController {
	return &BooksController{
		store: store,
	}
}

// bookRequest is the body of both create and update; an update replaces
// every catalog field.
type bookRequest struct {
	Title       string            `json:"title" binding:"required"`
	Author      string            `json:"author" binding:"required"`
	Description string            `json:"description"`
	Genre       string            `json:"genre"`
	Language    string            `json:"language"`
	BookType    entities.BookType `json:"book_type"`
	Pages       int               `json:"pages" binding:"min=0"`
}

// ListBooks serves GET /api/books?genre=&search=&page=&limit=
func (bc *BooksController) ListBooks(c *gin.Context) {
	page, ok := parseQueryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := parseQueryInt(c, "limit", books.DefaultPageSize)
	if !ok {
		return
	}

	result, err := bc.store.ListBooks(c.Request.Context(), books.Filter{
		Genre:  c.Query("genre"),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetBookByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// bindBook parses and validates a book body.
func bindBook(c *gin.Context) (*entities.Book, bool) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return nil, false
	}
	switch req.BookType {
	case "", entities.BookTypePDF, entities.BookTypeEPUB:
	default:
		respondBadRequest(c, "book_type must be pdf or epub")
		return nil, false
	}

	return &entities.Book{
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		Description: req.Description,
		Genre:       req.Genre,
		Language:    req.Language,
		BookType:    req.BookType,
		Pages:       req.Pages,
	}, true
}

func (bc *BooksController) CreateBook(c *gin.Context) {
	book, ok := bindBook(c)
	if !ok {
		return
	}
	if err := bc.store.CreateBook(c.Request.Context(), book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}
	respondCreated(c, book)
}

// UpdateBook serves PUT /api/books/:id
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, ok := bindBook(c)
	if !ok {
		return
	}
	book.ID = id

	ctx := c.Request.Context()
	if err := bc.store.UpdateBook(ctx, book); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "update book")
		return
	}

	updated, err := bc.store.GetBookByID(ctx, id)
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteBook serves DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.DeleteBook(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, books.ErrBookInUse):
			respondError(c, http.StatusConflict, err.Error(), string(engine.KindConflict))
		default:
			respondInternalError(c, err, "delete book")
		}
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Book deleted"})
}
