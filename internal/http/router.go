package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/studyshelf/internal/auth"
	"github.com/mrlokans/studyshelf/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())

	var observer RequestObserver
	if cfg.Metrics != nil {
		observer = cfg.Metrics
	}
	router.Use(RequestLogger(observer))

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	health := NewHealthController(cfg.Database, cfg.Version)
	authController := NewAuthController(cfg.AuthService)
	booksController := NewBooksController(cfg.Books)
	groupsController := NewGroupsController(cfg.Engine.Groups)
	progressController := NewProgressController(cfg.Engine.Progress, cfg.Engine.Stats)
	discussionsController := NewDiscussionsController(cfg.Engine.Discussions)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", Ping)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := router.Group("/api")

	// Public auth endpoints
	api.POST("/auth/register", authController.Register)
	api.POST("/auth/login", authController.Login)

	protected := api.Group("")
	protected.Use(auth.NewMiddleware(cfg.Tokens).RequireAuth())

	protected.GET("/auth/me", authController.Me)

	// Catalog
	protected.GET("/books", booksController.ListBooks)
	protected.GET("/books/:id", booksController.GetBook)
	admin := auth.RequireRole(entities.UserRoleAdmin)
	protected.POST("/books", admin, booksController.CreateBook)
	protected.PUT("/books/:id", admin, booksController.UpdateBook)
	protected.DELETE("/books/:id", admin, booksController.DeleteBook)

	// Groups
	protected.POST("/groups", groupsController.CreateGroup)
	protected.GET("/groups", groupsController.ListMyGroups)
	protected.GET("/groups/:id", groupsController.GetGroup)
	protected.DELETE("/groups/:id", groupsController.DeactivateGroup)
	protected.POST("/groups/:id/join", groupsController.JoinGroup)
	protected.POST("/groups/:id/leave", groupsController.LeaveGroup)
	protected.POST("/groups/:id/books", groupsController.AddBook)
	protected.DELETE("/groups/:id/books/:bookId", groupsController.RemoveBook)
	protected.GET("/groups/:id/books/:bookId/access", groupsController.CheckBookAccess)

	// Reading progress
	protected.POST("/progress", progressController.UpsertProgress)
	protected.GET("/progress/stats", progressController.GetMyStats)
	protected.GET("/progress/:bookId", progressController.GetMyProgress)
	protected.POST("/progress/:bookId/bookmarks", progressController.AddBookmark)
	protected.GET("/progress/:bookId/bookmarks", progressController.GetBookmarks)
	protected.POST("/progress/:bookId/notes", progressController.AddNote)
	protected.GET("/progress/:bookId/notes", progressController.GetNotes)
	protected.POST("/progress/:bookId/highlights", progressController.AddHighlight)
	protected.GET("/progress/:bookId/highlights", progressController.GetHighlights)

	// Discussions
	protected.POST("/discussions", discussionsController.CreateDiscussion)
	protected.GET("/discussions/book/:bookId", discussionsController.ListBookDiscussions)
	protected.GET("/discussions/:id", discussionsController.GetDiscussion)
	protected.POST("/discussions/:id/replies", discussionsController.AddReply)
	protected.POST("/discussions/:id/like", discussionsController.Like)
	protected.POST("/discussions/:id/unlike", discussionsController.Unlike)

	// Other users
	protected.GET("/users/:id/groups", groupsController.ListUserGroups)
	protected.GET("/users/:id/progress/:bookId", progressController.GetUserProgress)
	protected.GET("/users/:id/stats", progressController.GetUserStats)

	return router
}
