package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskdesk/taskdesk/internal/models"
)

var (
	testAdmin    = &models.User{ID: "u-admin", Role: models.RoleAdmin}
	testManager  = &models.User{ID: "u-manager", Role: models.RoleManager}
	testStaff    = &models.User{ID: "u-staff", Role: models.RoleStaff}
	testOutsider = &models.User{ID: "u-other", Role: models.RoleManager}
)

func managedTask() *models.Task {
	return &models.Task{
		ID:         "t-1",
		AssignedTo: testStaff.ID,
		ManagerID:  testManager.ID,
	}
}

func TestAuthorize_AdminBypassesEveryCheck(t *testing.T) {
	task := managedTask()
	for _, op := range []Operation{OpProgressSave, OpTaskReview, OpSubtaskMarkDone, OpSubtaskReview} {
		decision := Authorize(testAdmin, task, op)
		assert.True(t, decision.Allowed, "admin should be allowed %s", op)
	}
}

func TestAuthorize_AssigneeMaySaveProgress(t *testing.T) {
	task := managedTask()
	assert.True(t, Authorize(testStaff, task, OpProgressSave).Allowed)
	assert.True(t, Authorize(testStaff, task, OpSubtaskMarkDone).Allowed)
}

func TestAuthorize_ManagerMaySaveProgressAndReviewSubtasks(t *testing.T) {
	task := managedTask()
	assert.True(t, Authorize(testManager, task, OpProgressSave).Allowed)
	assert.True(t, Authorize(testManager, task, OpSubtaskReview).Allowed)
}

func TestAuthorize_StaffMayNotReviewSubtasks(t *testing.T) {
	task := managedTask()
	decision := Authorize(testStaff, task, OpSubtaskReview)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "Not authorized", decision.Reason)
}

func TestAuthorize_ForeignManagerDenied(t *testing.T) {
	// A manager who is not the task's manager gets no special
	// treatment, whatever the operation.
	task := managedTask()
	for _, op := range []Operation{OpProgressSave, OpTaskReview, OpSubtaskMarkDone, OpSubtaskReview} {
		decision := Authorize(testOutsider, task, op)
		assert.False(t, decision.Allowed, "outsider should be denied %s", op)
	}
}

func TestAuthorize_NoManagerFallsBackToAdminOnlyReview(t *testing.T) {
	task := managedTask()
	task.ManagerID = ""

	assert.False(t, Authorize(testManager, task, OpSubtaskReview).Allowed)
	assert.True(t, Authorize(testAdmin, task, OpSubtaskReview).Allowed)
}

func TestAuthorize_NonAdminTaskReviewDenied(t *testing.T) {
	task := managedTask()
	assert.False(t, Authorize(testStaff, task, OpTaskReview).Allowed)
	assert.False(t, Authorize(testManager, task, OpTaskReview).Allowed)
}
