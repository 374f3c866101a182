package api

import (
	"errors"
	"net/http"

	"appnexus-chat/backend/internal/models"
	"appnexus-chat/backend/internal/service"
	apperrors "appnexus-chat/backend/pkg/errors"
	"appnexus-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// UserDirectory is the read-side slice of the user service.
type UserDirectory interface {
	GetByID(id string) (*models.User, error)
	List() ([]models.User, error)
}

// UserController exposes the user directory. Responses are sanitized:
// password hashes and other internal fields never leave the service.
type UserController struct {
	directory UserDirectory
	logger    *logger.Logger
}

func NewUserController(directory UserDirectory, log *logger.Logger) *UserController {
	return &UserController{directory: directory, logger: log}
}

// RegisterRoutesV1 registers the versioned user routes
func (c *UserController) RegisterRoutesV1(v1 *gin.RouterGroup) {
	v1.GET("/users", c.ListUsers)
	v1.GET("/users/:id", c.GetUser)
}

// RegisterRoutes registers the legacy user routes
func (c *UserController) RegisterRoutes(router *gin.Engine) {
	legacy := router.Group("/api/users")
	{
		legacy.GET("", c.ListUsers)
		legacy.GET("/:id", c.GetUser)
	}
}

// ListUsers returns every user in the directory
func (c *UserController) ListUsers(ctx *gin.Context) {
	users, err := c.directory.List()
	if err != nil {
		c.logger.LogError(err, "failed to list users")
		ctx.Error(apperrors.NewStorageError())
		return
	}

	responses := make([]models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}
	ctx.JSON(http.StatusOK, responses)
}

// GetUser resolves a single user by storage ID or identity subject
func (c *UserController) GetUser(ctx *gin.Context) {
	user, err := c.directory.GetByID(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.logger.LogError(err, "failed to load user", "id", ctx.Param("id"))
		ctx.Error(apperrors.NewStorageError())
		return
	}

	ctx.JSON(http.StatusOK, user.ToResponse())
}
