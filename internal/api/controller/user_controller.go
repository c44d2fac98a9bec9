package controller

import (
	"errors"
	"net/http"

	"ctchen222/DrawSync/internal/api/models"
	"ctchen222/DrawSync/internal/api/response"
	"ctchen222/DrawSync/internal/api/service"

	"github.com/gin-gonic/gin"
)

// UserController handles user-related HTTP requests.
type UserController struct {
	userService service.UserService
}

// NewUserController creates a new UserController.
func NewUserController(userService service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// Register handles the user registration endpoint.
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := uc.userService.Register(c.Request.Context(), &req)
	if errors.Is(err, service.ErrUsernameTaken) {
		response.ErrorResponse(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "failed to create user")
		return
	}

	response.SuccessResponse(c, gin.H{"user_id": user.ID, "username": user.Username})
}

// Login handles the user login endpoint.
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := uc.userService.Login(c.Request.Context(), &req)
	if errors.Is(err, service.ErrInvalidCredentials) {
		response.ErrorResponse(c, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "failed to log in")
		return
	}

	response.SuccessResponse(c, resp)
}
