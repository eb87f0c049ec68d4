package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskdesk/taskdesk/internal/approval"
	"github.com/taskdesk/taskdesk/internal/services"
)

var errInvalidRequestBody = errors.New("invalid request body")

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newForbiddenError(message string) apiError {
	return newAPIError(http.StatusForbidden, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

// abortServiceError maps service sentinels onto HTTP statuses. Every
// failure is recoverable by retrying with corrected input; nothing is
// retried server-side.
func abortServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrPlanNotFound),
		errors.Is(err, services.ErrPlanVariantNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, approval.ErrSubtaskNotFound):
		abort(c, newNotFoundError(err.Error()))
	case errors.Is(err, services.ErrNotAuthorized):
		abort(c, newForbiddenError(err.Error()))
	case errors.Is(err, services.ErrUserAlreadyExists):
		abort(c, newConflictError(err.Error()))
	case errors.Is(err, services.ErrMissingRequiredField),
		errors.Is(err, services.ErrNoSubtasks),
		errors.Is(err, services.ErrPasswordTooShort),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidAssigneeRole),
		errors.Is(err, services.ErrInvalidManagerRole),
		errors.Is(err, approval.ErrInvalidTaskStatus),
		errors.Is(err, approval.ErrInvalidReviewStatus),
		errors.Is(err, approval.ErrInvalidSubtaskStatus),
		errors.Is(err, approval.ErrSubtaskNotReviewable):
		abort(c, newBadRequestError(err.Error()))
	default:
		abort(c, newStatusTextError(http.StatusInternalServerError))
	}
}
