package v1

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/taskdesk/taskdesk/internal/approval"
	"github.com/taskdesk/taskdesk/internal/services"
)

func abortedStatus(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	abortServiceError(c, err)
	return recorder.Code
}

func TestAbortServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrTaskNotFound, http.StatusNotFound},
		{services.ErrPlanNotFound, http.StatusNotFound},
		{services.ErrPlanVariantNotFound, http.StatusNotFound},
		{services.ErrUserNotFound, http.StatusNotFound},
		{approval.ErrSubtaskNotFound, http.StatusNotFound},
		{services.ErrNotAuthorized, http.StatusForbidden},
		{services.ErrUserAlreadyExists, http.StatusConflict},
		{services.ErrMissingRequiredField, http.StatusBadRequest},
		{services.ErrNoSubtasks, http.StatusBadRequest},
		{services.ErrInvalidAssigneeRole, http.StatusBadRequest},
		{approval.ErrInvalidTaskStatus, http.StatusBadRequest},
		{approval.ErrInvalidReviewStatus, http.StatusBadRequest},
		{approval.ErrSubtaskNotReviewable, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, abortedStatus(t, tc.err), "%v", tc.err)
	}
}
