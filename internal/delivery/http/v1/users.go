package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/services"
)

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

type createUserRequest struct {
	Username string `json:"username" binding:"required,max=255"`
	Password string `json:"password" binding:"required,min=6,max=255"`
	Name     string `json:"name" binding:"required,max=255"`
	Role     string `json:"role" binding:"required"`
}

func (h *handlerImpl) HandleCreateUser(c *gin.Context) {
	var req createUserRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	user, err := h.users.CreateUser(c, services.CreateUserParams{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create user")
		abortServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(user))
}

func (h *handlerImpl) HandleGetUsers(c *gin.Context) {
	users, err := h.users.GetUsers(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get users")
		abortServiceError(c, err)
		return
	}

	response := make([]userResponse, len(users))
	for i, user := range users {
		response[i] = newUserResponse(user)
	}
	c.JSON(http.StatusOK, response)
}

type resetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=255"`
}

func (h *handlerImpl) HandleResetPassword(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		h.logger.Error().Msg("no user id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	var req resetPasswordRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	err = h.users.ResetPassword(c, userID, req.Password)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to reset password")
		abortServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleDeleteUser(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		h.logger.Error().Msg("no user id provided")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	err := h.users.DeleteUser(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete user")
		abortServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
