package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/studyshelf/internal/engine"
)

// ProgressController exposes the progress tracker and stats aggregator.
type ProgressController struct {
	progress *engine.ProgressTracker
	stats    *engine.StatsAggregator
}

func NewProgressController(progress *engine.ProgressTracker, stats *engine.StatsAggregator) *ProgressController {
	return &ProgressController{progress: progress, stats: stats}
}

type upsertProgressRequest struct {
	BookID        uint  `json:"book_id" binding:"required"`
	CurrentPage   *int  `json:"current_page"`
	TotalPages    *int  `json:"total_pages"`
	TotalTimeRead *int  `json:"total_time_read"` // minutes to add
	IsCompleted   *bool `json:"is_completed"`
	GroupID       *uint `json:"group_id"`
}

type annotationRequest struct {
	Page    int    `json:"page"`
	Content string `json:"content"`
	Color   string `json:"color"`
}

func (pc *ProgressController) UpsertProgress(c *gin.Context) {
	var req upsertProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	record, err := pc.progress.UpsertProgress(c.Request.Context(), principal(c), req.BookID, engine.ProgressUpdate{
		CurrentPage:   req.CurrentPage,
		TotalPages:    req.TotalPages,
		TotalTimeRead: req.TotalTimeRead,
		IsCompleted:   req.IsCompleted,
		GroupID:       req.GroupID,
	})
	if err != nil {
		respondEngineError(c, err, "upsert progress")
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetMyProgress returns the caller's progress on a book.
func (pc *ProgressController) GetMyProgress(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	pc.getProgress(c, GetUserID(c), bookID)
}

// GetUserProgress returns another user's progress on a book.
func (pc *ProgressController) GetUserProgress(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	pc.getProgress(c, userID, bookID)
}

func (pc *ProgressController) getProgress(c *gin.Context, userID, bookID uint) {
	record, err := pc.progress.GetProgress(c.Request.Context(), userID, bookID)
	if err != nil {
		respondEngineError(c, err, "get progress")
		return
	}
	c.JSON(http.StatusOK, record)
}

// bindAnnotation parses the bookId param and annotation body.
func bindAnnotation(c *gin.Context) (uint, engine.Annotation, bool) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return 0, engine.Annotation{}, false
	}
	var req annotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return 0, engine.Annotation{}, false
	}
	return bookID, engine.Annotation{Page: req.Page, Content: req.Content, Color: req.Color}, true
}

func (pc *ProgressController) AddBookmark(c *gin.Context) {
	bookID, a, ok := bindAnnotation(c)
	if !ok {
		return
	}
	bookmarks, err := pc.progress.AddBookmark(c.Request.Context(), principal(c), bookID, a)
	if err != nil {
		respondEngineError(c, err, "add bookmark")
		return
	}
	respondCreated(c, bookmarks)
}

func (pc *ProgressController) GetBookmarks(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	bookmarks, err := pc.progress.GetBookmarks(c.Request.Context(), GetUserID(c), bookID)
	if err != nil {
		respondEngineError(c, err, "get bookmarks")
		return
	}
	c.JSON(http.StatusOK, bookmarks)
}

func (pc *ProgressController) AddNote(c *gin.Context) {
	bookID, a, ok := bindAnnotation(c)
	if !ok {
		return
	}
	notes, err := pc.progress.AddNote(c.Request.Context(), principal(c), bookID, a)
	if err != nil {
		respondEngineError(c, err, "add note")
		return
	}
	respondCreated(c, notes)
}

func (pc *ProgressController) GetNotes(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	notes, err := pc.progress.GetNotes(c.Request.Context(), GetUserID(c), bookID)
	if err != nil {
		respondEngineError(c, err, "get notes")
		return
	}
	c.JSON(http.StatusOK, notes)
}

func (pc *ProgressController) AddHighlight(c *gin.Context) {
	bookID, a, ok := bindAnnotation(c)
	if !ok {
		return
	}
	highlights, err := pc.progress.AddHighlight(c.Request.Context(), principal(c), bookID, a)
	if err != nil {
		respondEngineError(c, err, "add highlight")
		return
	}
	respondCreated(c, highlights)
}

func (pc *ProgressController) GetHighlights(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}
	highlights, err := pc.progress.GetHighlights(c.Request.Context(), GetUserID(c), bookID)
	if err != nil {
		respondEngineError(c, err, "get highlights")
		return
	}
	c.JSON(http.StatusOK, highlights)
}

// GetMyStats summarizes the caller's reading.
func (pc *ProgressController) GetMyStats(c *gin.Context) {
	pc.getStats(c, GetUserID(c))
}

func (pc *ProgressController) GetUserStats(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	pc.getStats(c, userID)
}

func (pc *ProgressController) getStats(c *gin.Context, userID uint) {
	stats, err := pc.stats.GetStats(c.Request.Context(), userID)
	if err != nil {
		respondEngineError(c, err, "get stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
