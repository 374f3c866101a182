package api

import (
	"errors"
	"net/http"
	"strconv"

	"appnexus-chat/backend/internal/models"
	"appnexus-chat/backend/internal/service"
	"appnexus-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AccountService is the account-management slice of the user service.
type AccountService interface {
	Signup(req *models.SignupRequest) (*models.User, string, error)
	Login(req *models.LoginRequest) (*models.User, string, error)
	Sync(req *models.SyncRequest) (*models.User, bool, error)
	GetByID(id string) (*models.User, error)
}

// AuthHandler handles local signup/login and identity-provider sync
type AuthHandler struct {
	accounts AccountService
	logger   *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts AccountService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: log}
}

// Signup handles local account registration
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Error binding JSON for signup", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Full name, email, and password are required"})
		return
	}

	user, token, err := h.accounts.Signup(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": "A user with this email already exists"})
		default:
			h.logger.LogError(err, "Error creating user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error during signup"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Signup successful",
		"user":    user.ToResponse(),
		"token":   token,
	})
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, token, err := h.accounts.Login(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		default:
			h.logger.LogError(err, "Error during login")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred during login"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user.ToResponse(),
		"token":   token,
	})
}

// Sync upserts a profile snapshot pushed by the identity provider
func (h *AuthHandler) Sync(c *gin.Context) {
	var req models.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing uid or email"})
		return
	}

	user, created, err := h.accounts.Sync(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingIdentity):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing uid or email"})
		default:
			h.logger.LogError(err, "Error syncing user", "uid", req.UID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error during sync"})
		}
		return
	}

	status := http.StatusOK
	message := "User updated"
	if created {
		status = http.StatusCreated
		message = "User created"
	}
	c.JSON(status, gin.H{"message": message, "user": user.ToResponse()})
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetUint("userID")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	user, err := h.accounts.GetByID(strconv.FormatUint(uint64(userID), 10))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		h.logger.LogError(err, "Error loading profile", "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}
