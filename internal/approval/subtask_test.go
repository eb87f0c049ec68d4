package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk/taskdesk/internal/models"
)

func TestMarkDone_PendingGoesToWaitingApproval(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusPending)

	err := MarkDone(task, "a", "screenshots attached", testNow)
	require.NoError(t, err)

	assert.Equal(t, models.SubtaskStatusWaitingApproval, task.Subtasks[0].Status)
	assert.False(t, task.Subtasks[0].Completed)
	assert.Equal(t, "screenshots attached", task.Subtasks[0].Reason)
	assert.Equal(t, testNow, task.UpdatedAt)
}

func TestMarkDone_RejectedCanBeResubmitted(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusRejected)
	task.Subtasks[0].ManagerNote = "missing evidence"

	err := MarkDone(task, "a", "added evidence", testNow)
	require.NoError(t, err)

	assert.Equal(t, models.SubtaskStatusWaitingApproval, task.Subtasks[0].Status)
	assert.Equal(t, "added evidence", task.Subtasks[0].Reason)
	// The previous review note stays until the next review overwrites it.
	assert.Equal(t, "missing evidence", task.Subtasks[0].ManagerNote)
}

func TestMarkDone_CompletedIsSilentNoOp(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusCompleted)

	err := MarkDone(task, "a", "trying again", testNow)
	require.NoError(t, err)

	assert.Equal(t, models.SubtaskStatusCompleted, task.Subtasks[0].Status)
	assert.True(t, task.Subtasks[0].Completed)
	assert.Empty(t, task.Subtasks[0].Reason)
}

func TestMarkDone_AlreadyWaitingIsSilentNoOp(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusWaitingApproval)
	task.Subtasks[0].Reason = "first submission"

	err := MarkDone(task, "a", "second submission", testNow)
	require.NoError(t, err)

	assert.Equal(t, models.SubtaskStatusWaitingApproval, task.Subtasks[0].Status)
	assert.Equal(t, "first submission", task.Subtasks[0].Reason)
}

func TestMarkDone_EmptyReasonKeepsExisting(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusRejected)
	task.Subtasks[0].Reason = "original reason"

	err := MarkDone(task, "a", "", testNow)
	require.NoError(t, err)

	assert.Equal(t, "original reason", task.Subtasks[0].Reason)
}

func TestMarkDone_UnknownSubtask(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusPending)

	err := MarkDone(task, "nope", "", testNow)
	assert.ErrorIs(t, err, ErrSubtaskNotFound)
}

func TestReviewSubtask_Approve(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusWaitingApproval)

	err := ReviewSubtask(task, "a", models.SubtaskStatusCompleted, "looks good", testNow)
	require.NoError(t, err)

	assert.Equal(t, models.SubtaskStatusCompleted, task.Subtasks[0].Status)
	assert.True(t, task.Subtasks[0].Completed)
	assert.Equal(t, "looks good", task.Subtasks[0].ManagerNote)
}

func TestReviewSubtask_Reject(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusWaitingApproval)
	task.Subtasks[0].ManagerNote = "stale note"

	err := ReviewSubtask(task, "a", models.SubtaskStatusRejected, "redo the export", testNow)
	require.NoError(t, err)

	assert.Equal(t, models.SubtaskStatusRejected, task.Subtasks[0].Status)
	assert.False(t, task.Subtasks[0].Completed)
	assert.Equal(t, "redo the export", task.Subtasks[0].ManagerNote)
}

func TestReviewSubtask_NoteOverwrittenEvenWhenEmpty(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusWaitingApproval)
	task.Subtasks[0].ManagerNote = "stale note"

	err := ReviewSubtask(task, "a", models.SubtaskStatusCompleted, "", testNow)
	require.NoError(t, err)

	assert.Empty(t, task.Subtasks[0].ManagerNote)
}

func TestReviewSubtask_OnlyFromWaitingApproval(t *testing.T) {
	for _, status := range []models.SubtaskStatus{
		models.SubtaskStatusPending,
		models.SubtaskStatusCompleted,
		models.SubtaskStatusRejected,
	} {
		task := taskWithSubtasks(status)
		err := ReviewSubtask(task, "a", models.SubtaskStatusCompleted, "", testNow)
		assert.ErrorIs(t, err, ErrSubtaskNotReviewable, "status %s", status)
	}
}

func TestReviewSubtask_InvalidStatus(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusWaitingApproval)

	err := ReviewSubtask(task, "a", models.SubtaskStatusPending, "", testNow)
	assert.ErrorIs(t, err, ErrInvalidSubtaskStatus)
	assert.Equal(t, models.SubtaskStatusWaitingApproval, task.Subtasks[0].Status)
}

func TestReviewSubtask_UnknownSubtask(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusWaitingApproval)

	err := ReviewSubtask(task, "nope", models.SubtaskStatusCompleted, "", testNow)
	assert.ErrorIs(t, err, ErrSubtaskNotFound)
}
