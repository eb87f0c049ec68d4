package approval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk/taskdesk/internal/models"
)

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func taskWithSubtasks(statuses ...models.SubtaskStatus) *models.Task {
	task := managedTask()
	task.Status = models.TaskStatusInProgress
	for i, st := range statuses {
		task.Subtasks = append(task.Subtasks, models.Subtask{
			ID:        string(rune('a' + i)),
			Title:     "step",
			Status:    st,
			Completed: st == models.SubtaskStatusCompleted,
		})
	}
	return task
}

func completedSubtasks(n int) []models.Subtask {
	subtasks := make([]models.Subtask, n)
	for i := range subtasks {
		subtasks[i] = models.Subtask{
			ID:        string(rune('a' + i)),
			Title:     "step",
			Status:    models.SubtaskStatusCompleted,
			Completed: true,
		}
	}
	return subtasks
}

func TestApplyProgress_AllCompleteGoesToWaitingApproval(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusPending, models.SubtaskStatusPending)
	note := "all done, please review"

	err := ApplyProgress(task, testStaff, ProgressPatch{
		Subtasks:       completedSubtasks(2),
		Status:         models.TaskStatusCompleted,
		SubmissionNote: &note,
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusWaitingApproval, task.Status)
	assert.Equal(t, note, task.SubmissionNote)
}

func TestApplyProgress_CompletedRequestDowngradedEvenWithoutSubtasks(t *testing.T) {
	// The downgrade fires on the explicit request alone; a non-admin
	// can never store completed.
	task := taskWithSubtasks(models.SubtaskStatusPending)

	err := ApplyProgress(task, testStaff, ProgressPatch{
		Status: models.TaskStatusCompleted,
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusWaitingApproval, task.Status)
}

func TestApplyProgress_ManagerIsDowngradedToo(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusCompleted)

	err := ApplyProgress(task, testManager, ProgressPatch{
		Status: models.TaskStatusCompleted,
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusWaitingApproval, task.Status)
}

func TestApplyProgress_AdminSetsStatusDirectly(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusPending)

	err := ApplyProgress(task, testAdmin, ProgressPatch{
		Status: models.TaskStatusCompleted,
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusCompleted, task.Status)
}

func TestApplyProgress_PartialProgressKeepsStatus(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusPending, models.SubtaskStatusPending)

	subtasks := completedSubtasks(2)
	subtasks[1].Status = models.SubtaskStatusPending
	subtasks[1].Completed = false

	err := ApplyProgress(task, testStaff, ProgressPatch{Subtasks: subtasks}, testNow)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusInProgress, task.Status)
	assert.Equal(t, testNow, task.UpdatedAt)
}

func TestApplyProgress_InvalidStatusRejected(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusPending)

	err := ApplyProgress(task, testStaff, ProgressPatch{Status: "archived"}, testNow)
	assert.ErrorIs(t, err, ErrInvalidTaskStatus)
	assert.Equal(t, models.TaskStatusInProgress, task.Status)
}

func TestApplyProgress_EmptySubtaskArrayNeverAutoSubmits(t *testing.T) {
	// Creation requires at least one subtask, but the engine must
	// tolerate an empty array without treating it as all-complete.
	task := managedTask()
	task.Status = models.TaskStatusPending

	err := ApplyProgress(task, testStaff, ProgressPatch{Subtasks: []models.Subtask{}}, testNow)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusPending, task.Status)
}

func TestApplyProgress_NormalizesLegacyCompletedFlag(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusPending)

	err := ApplyProgress(task, testStaff, ProgressPatch{
		Subtasks: []models.Subtask{{ID: "a", Title: "step", Completed: true}},
	}, testNow)
	require.NoError(t, err)

	assert.Equal(t, models.SubtaskStatusCompleted, task.Subtasks[0].Status)
	assert.True(t, task.Subtasks[0].Completed)
}

func TestApplyProgress_WholeArrayReplaceIsLastWriteWins(t *testing.T) {
	// There is no optimistic locking: a progress save replaces the
	// whole subtask array, so two editors racing on the same task
	// silently overwrite each other. This pins the documented
	// behavior rather than endorsing it.
	task := taskWithSubtasks(models.SubtaskStatusPending, models.SubtaskStatusPending)

	first := []models.Subtask{
		{ID: "a", Title: "step", Status: models.SubtaskStatusCompleted},
		{ID: "b", Title: "step", Status: models.SubtaskStatusPending},
	}
	second := []models.Subtask{
		{ID: "a", Title: "step", Status: models.SubtaskStatusPending},
		{ID: "b", Title: "step", Status: models.SubtaskStatusWaitingApproval},
	}

	require.NoError(t, ApplyProgress(task, testStaff, ProgressPatch{Subtasks: first}, testNow))
	require.NoError(t, ApplyProgress(task, testManager, ProgressPatch{Subtasks: second}, testNow))

	assert.Equal(t, models.SubtaskStatusPending, task.Subtasks[0].EffectiveStatus())
	assert.Equal(t, models.SubtaskStatusWaitingApproval, task.Subtasks[1].EffectiveStatus())
}

func TestReview_ApproveClearsRejectionReason(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusCompleted)
	task.Status = models.TaskStatusWaitingApproval
	task.RejectionReason = "previous rejection"

	err := Review(task, models.TaskStatusCompleted, "", testNow)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Empty(t, task.RejectionReason)
}

func TestReview_RejectDefaultsReason(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusCompleted)
	task.Status = models.TaskStatusWaitingApproval

	err := Review(task, models.TaskStatusInProgress, "", testNow)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusInProgress, task.Status)
	assert.Equal(t, DefaultRejectionReason, task.RejectionReason)
}

func TestReview_RejectKeepsSubmissionNote(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusCompleted)
	task.Status = models.TaskStatusWaitingApproval
	task.SubmissionNote = "done, see attachments"

	err := Review(task, models.TaskStatusInProgress, "X", testNow)
	require.NoError(t, err)

	assert.Equal(t, "X", task.RejectionReason)
	assert.Equal(t, "done, see attachments", task.SubmissionNote)
}

func TestReview_InvalidStatusRejected(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusCompleted)
	task.Status = models.TaskStatusWaitingApproval

	err := Review(task, models.TaskStatusWaitingApproval, "", testNow)
	assert.ErrorIs(t, err, ErrInvalidReviewStatus)
	assert.Equal(t, models.TaskStatusWaitingApproval, task.Status)
}

func TestReview_OverdueTaskCanStillBeCompleted(t *testing.T) {
	task := taskWithSubtasks(models.SubtaskStatusCompleted)
	task.Status = models.TaskStatusOverdue

	err := Review(task, models.TaskStatusCompleted, "", testNow)
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusCompleted, task.Status)
}
