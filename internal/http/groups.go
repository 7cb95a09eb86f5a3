package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/studyshelf/internal/engine"
)

// GroupsController exposes the membership manager.
type GroupsController struct {
	groups *engine.MembershipManager
}

func NewGroupsController(groups *engine.MembershipManager) *GroupsController {
	return &GroupsController{groups: groups}
}

type createGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MaxMembers  *int   `json:"max_members"`
}

type addGroupBookRequest struct {
	BookID     uint `json:"book_id" binding:"required"`
	AccessDays *int `json:"access_days"`
}

func (gc *GroupsController) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	group, err := gc.groups.CreateGroup(c.Request.Context(), principal(c), engine.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		MaxMembers:  req.MaxMembers,
	})
	if err != nil {
		respondEngineError(c, err, "create group")
		return
	}
	respondCreated(c, group)
}

func (gc *GroupsController) GetGroup(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	group, err := gc.groups.GetGroup(c.Request.Context(), id)
	if err != nil {
		respondEngineError(c, err, "get group")
		return
	}
	c.JSON(http.StatusOK, group)
}

// ListMyGroups lists the caller's active groups.
func (gc *GroupsController) ListMyGroups(c *gin.Context) {
	gc.listGroups(c, GetUserID(c))
}

// ListUserGroups lists another user's active groups.
func (gc *GroupsController) ListUserGroups(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	gc.listGroups(c, userID)
}

func (gc *GroupsController) listGroups(c *gin.Context, userID uint) {
	groups, err := gc.groups.ListGroupsForUser(c.Request.Context(), userID)
	if err != nil {
		respondEngineError(c, err, "list groups")
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (gc *GroupsController) JoinGroup(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	group, err := gc.groups.JoinGroup(c.Request.Context(), principal(c), id)
	if err != nil {
		respondEngineError(c, err, "join group")
		return
	}
	c.JSON(http.StatusOK, group)
}

func (gc *GroupsController) LeaveGroup(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	group, err := gc.groups.LeaveGroup(c.Request.Context(), principal(c), id)
	if err != nil {
		respondEngineError(c, err, "leave group")
		return
	}
	c.JSON(http.StatusOK, group)
}

func (gc *GroupsController) AddBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req addGroupBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	group, err := gc.groups.AddBookToGroup(c.Request.Context(), principal(c), id, req.BookID, req.AccessDays)
	if err != nil {
		respondEngineError(c, err, "add book to group")
		return
	}
	respondCreated(c, group)
}

func (gc *GroupsController) RemoveBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	group, err := gc.groups.RemoveBookFromGroup(c.Request.Context(), principal(c), id, bookID)
	if err != nil {
		respondEngineError(c, err, "remove book from group")
		return
	}
	c.JSON(http.StatusOK, group)
}

// CheckBookAccess reports whether the group currently grants access to a book.
func (gc *GroupsController) CheckBookAccess(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	hasAccess, err := gc.groups.CheckBookAccess(c.Request.Context(), id, bookID)
	if err != nil {
		respondEngineError(c, err, "check book access")
		return
	}
	c.JSON(http.StatusOK, gin.H{"group_id": id, "book_id": bookID, "has_access": hasAccess})
}

func (gc *GroupsController) DeactivateGroup(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	group, err := gc.groups.DeactivateGroup(c.Request.Context(), principal(c), id)
	if err != nil {
		respondEngineError(c, err, "deactivate group")
		return
	}
	c.JSON(http.StatusOK, group)
}
