package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/studyshelf/internal/database/discussions"
	"github.com/mrlokans/studyshelf/internal/engine"
)

// DiscussionsController exposes the discussion board.
type DiscussionsController struct {
	board *engine.DiscussionBoard
}

func NewDiscussionsController(board *engine.DiscussionBoard) *DiscussionsController {
	return &DiscussionsController{board: board}
}

type createDiscussionRequest struct {
	BookID  uint   `json:"book_id" binding:"required"`
	GroupID *uint  `json:"group_id"`
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

type replyRequest struct {
	Content string `json:"content" binding:"required"`
}

type likesResponse struct {
	DiscussionID uint  `json:"discussion_id"`
	LikesCount   int64 `json:"likes_count"`
}

func (dc *DiscussionsController) CreateDiscussion(c *gin.Context) {
	var req createDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	d, err := dc.board.CreateDiscussion(c.Request.Context(), principal(c), engine.CreateDiscussionInput{
		BookID:  req.BookID,
		GroupID: req.GroupID,
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		respondEngineError(c, err, "create discussion")
		return
	}
	respondCreated(c, d)
}

// ListBookDiscussions serves GET /api/discussions/book/:bookId?group_id=&page=&limit=
func (dc *DiscussionsController) ListBookDiscussions(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	page, ok := parseQueryInt(c, "page", 1)
	if !ok {
		return
	}
	limit, ok := parseQueryInt(c, "limit", discussions.DefaultPageSize)
	if !ok {
		return
	}
	filter := discussions.Filter{BookID: bookID, Page: page, Limit: limit}
	if c.Query("group_id") != "" {
		groupID, ok := parseQueryInt(c, "group_id", 0)
		if !ok {
			return
		}
		id := uint(groupID)
		filter.GroupID = &id
	}

	result, err := dc.board.ListDiscussions(c.Request.Context(), filter)
	if err != nil {
		respondEngineError(c, err, "list discussions")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (dc *DiscussionsController) GetDiscussion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	d, err := dc.board.GetDiscussion(c.Request.Context(), id)
	if err != nil {
		respondEngineError(c, err, "get discussion")
		return
	}
	c.JSON(http.StatusOK, d)
}

func (dc *DiscussionsController) AddReply(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	reply, err := dc.board.AddReply(c.Request.Context(), principal(c), id, req.Content)
	if err != nil {
		respondEngineError(c, err, "add reply")
		return
	}
	respondCreated(c, reply)
}

func (dc *DiscussionsController) Like(c *gin.Context) {
	dc.toggleLike(c, "like discussion", dc.board.Like)
}

func (dc *DiscussionsController) Unlike(c *gin.Context) {
	dc.toggleLike(c, "unlike discussion", dc.board.Unlike)
}

func (dc *DiscussionsController) toggleLike(c *gin.Context, op string, apply func(ctx context.Context, p engine.Principal, id uint) (int64, error)) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	n, err := apply(c.Request.Context(), principal(c), id)
	if err != nil {
		respondEngineError(c, err, op)
		return
	}
	c.JSON(http.StatusOK, likesResponse{DiscussionID: id, LikesCount: n})
}
