package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/studyshelf/internal/auth"
)

type AuthController struct {
	service *auth.Service
}

func NewAuthController(service *auth.Service) *AuthController {
	return &AuthController{service: service}
}

type registerRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Institution string `json:"institution"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates a regular user account. Admins are created with the
// create-user command.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	user, err := ac.service.Register(c.Request.Context(), auth.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Institution: req.Institution,
	})
	switch {
	case err == nil:
		respondCreated(c, user)
	case errors.Is(err, auth.ErrUserExists):
		respondError(c, http.StatusConflict, err.Error(), "conflict")
	case isRegisterValidation(err):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, "register")
	}
}

func isRegisterValidation(err error) bool {
	for _, target := range []error{
		auth.ErrNameRequired,
		auth.ErrEmailRequired,
		auth.ErrEmailInvalid,
		auth.ErrPasswordRequired,
		auth.ErrPasswordTooShort,
		auth.ErrPasswordTooLong,
		auth.ErrInvalidRole,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	result, err := ac.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, err.Error(), "unauthorized")
			return
		}
		respondInternalError(c, err, "login")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Me returns the authenticated user.
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.service.GetUser(c.Request.Context(), GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "user")
			return
		}
		respondInternalError(c, err, "get current user")
		return
	}
	c.JSON(http.StatusOK, user)
}
