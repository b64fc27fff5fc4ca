package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storeup/storeup-backend/internal/app/model"
	"github.com/storeup/storeup-backend/internal/app/service"
	"github.com/storeup/storeup-backend/internal/middleware"
	"github.com/storeup/storeup-backend/pkg/util"
)

type UserController struct {
	authService service.AuthService
}

func NewUserController(authService service.AuthService) *UserController {
	return &UserController{authService: authService}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,max=150"`
	Email     string `json:"email" binding:"required,email,max=254"`
	Password  string `json:"password" binding:"required"`
	Password2 string `json:"password2" binding:"required"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

// LoginRequest accepts either the username or the email as "username".
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

func tokenResponse(user *model.User, tokens *util.TokenPair) gin.H {
	return gin.H{
		"user":          user,
		"token":         tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	}
}

// Register handles POST /users.
func (ctrl *UserController) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := ctrl.authService.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Password2: req.Password2,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(c, "Registration failed", err, map[string]interface{}{
			"username": req.Username,
		})
		return
	}

	c.JSON(http.StatusCreated, tokenResponse(user, tokens))
}

// Login handles POST /users/login.
func (ctrl *UserController) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" {
		middleware.GetLoggerFromContext(c).Warn("Login without identifier", nil)
		respondError(c, "Login failed", service.ErrInvalidCredentials, nil)
		return
	}

	user, tokens, err := ctrl.authService.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		respondError(c, "Login failed", err, nil)
		return
	}

	c.JSON(http.StatusOK, tokenResponse(user, tokens))
}

// Me handles GET /users/me.
func (ctrl *UserController) Me(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	user, err := ctrl.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, "Failed to load current user", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListUsers handles GET /users. Staff only.
func (ctrl *UserController) ListUsers(c *gin.Context) {
	users, err := ctrl.authService.ListUsers(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, "Failed to list users", err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// Logout handles POST /users/logout by revoking the presented token.
func (ctrl *UserController) Logout(c *gin.Context) {
	claims, _ := middleware.GetClaims(c)
	if err := ctrl.authService.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, "Logout failed", err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
