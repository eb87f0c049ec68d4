package approval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taskdesk/taskdesk/internal/models"
)

func deadlineTask(status models.TaskStatus, deadline time.Time) *models.Task {
	task := managedTask()
	task.Status = status
	task.Deadline = deadline
	return task
}

func TestSweep_ReclassifiesPastDeadline(t *testing.T) {
	yesterday := testNow.AddDate(0, 0, -1)
	tasks := []*models.Task{
		deadlineTask(models.TaskStatusPending, yesterday),
		deadlineTask(models.TaskStatusInProgress, yesterday),
		deadlineTask(models.TaskStatusWaitingApproval, yesterday),
	}

	swept := Sweep(tasks, testNow)

	assert.Equal(t, 3, swept)
	for _, task := range tasks {
		assert.Equal(t, models.TaskStatusOverdue, task.Status)
		assert.Equal(t, testNow, task.UpdatedAt)
	}
}

func TestSweep_SkipsCompleted(t *testing.T) {
	yesterday := testNow.AddDate(0, 0, -1)
	task := deadlineTask(models.TaskStatusCompleted, yesterday)

	swept := Sweep([]*models.Task{task}, testNow)

	assert.Zero(t, swept)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
}

func TestSweep_FutureDeadlineUntouched(t *testing.T) {
	tomorrow := testNow.AddDate(0, 0, 1)
	task := deadlineTask(models.TaskStatusInProgress, tomorrow)

	swept := Sweep([]*models.Task{task}, testNow)

	assert.Zero(t, swept)
	assert.Equal(t, models.TaskStatusInProgress, task.Status)
}

func TestSweep_Idempotent(t *testing.T) {
	yesterday := testNow.AddDate(0, 0, -1)
	tasks := []*models.Task{deadlineTask(models.TaskStatusInProgress, yesterday)}

	assert.Equal(t, 1, Sweep(tasks, testNow))
	assert.Equal(t, 0, Sweep(tasks, testNow))
	assert.Equal(t, models.TaskStatusOverdue, tasks[0].Status)
}

func TestOverdue_ExactDeadlineIsNotOverdue(t *testing.T) {
	task := deadlineTask(models.TaskStatusInProgress, testNow)

	assert.False(t, Overdue(task, testNow))
}
