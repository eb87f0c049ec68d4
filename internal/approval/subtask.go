package approval

import (
	"time"

	"github.com/taskdesk/taskdesk/internal/models"
)

// MarkDone moves a single subtask to waiting_approval on behalf of
// the assignee. Subtasks already completed or waiting are a silent
// no-op so a repeated toggle cannot regress review state. Rejected
// subtasks may be re-submitted.
func MarkDone(t *models.Task, subtaskID, reason string, now time.Time) error {
	st := t.Subtask(subtaskID)
	if st == nil {
		return ErrSubtaskNotFound
	}

	switch st.EffectiveStatus() {
	case models.SubtaskStatusCompleted, models.SubtaskStatusWaitingApproval:
		return nil
	}

	st.Status = models.SubtaskStatusWaitingApproval
	st.Completed = false
	if reason != "" {
		st.Reason = reason
	}
	t.UpdatedAt = now
	return nil
}

// ReviewSubtask resolves a waiting subtask to completed or rejected.
// The manager note is overwritten on every review; the legacy
// completed flag follows the status.
func ReviewSubtask(t *models.Task, subtaskID string, status models.SubtaskStatus, managerNote string, now time.Time) error {
	st := t.Subtask(subtaskID)
	if st == nil {
		return ErrSubtaskNotFound
	}

	if status != models.SubtaskStatusCompleted && status != models.SubtaskStatusRejected {
		return ErrInvalidSubtaskStatus
	}
	if st.EffectiveStatus() != models.SubtaskStatusWaitingApproval {
		return ErrSubtaskNotReviewable
	}

	st.Status = status
	st.Completed = status == models.SubtaskStatusCompleted
	st.ManagerNote = managerNote
	t.UpdatedAt = now
	return nil
}
