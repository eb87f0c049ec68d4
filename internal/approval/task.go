package approval

import (
	"errors"
	"time"

	"github.com/taskdesk/taskdesk/internal/models"
)

var (
	ErrInvalidTaskStatus    = errors.New("invalid task status")
	ErrInvalidReviewStatus  = errors.New("invalid review status")
	ErrInvalidSubtaskStatus = errors.New("invalid subtask status")
	ErrSubtaskNotFound      = errors.New("subtask not found")
	ErrSubtaskNotReviewable = errors.New("subtask is not waiting for approval")
)

// DefaultRejectionReason is stored when an admin rejects a task
// without giving a reason.
const DefaultRejectionReason = "Rejected by Admin"

// ProgressPatch is a progress-save request. Nil/empty fields are left
// unchanged; a non-nil Subtasks slice replaces the whole array, which
// is the documented last-write-wins behavior for concurrent editors.
type ProgressPatch struct {
	Subtasks       []models.Subtask
	Status         models.TaskStatus
	SubmissionNote *string
}

// ApplyProgress applies a progress save to the task. Callers must have
// authorized the actor already; the actor is still consulted here
// because the completed -> waiting_approval downgrade depends on the
// role: no non-admin (managers included) may move a task to completed,
// either by requesting it explicitly or by finishing every subtask.
func ApplyProgress(t *models.Task, actor *models.User, patch ProgressPatch, now time.Time) error {
	if patch.Status != "" && !patch.Status.Valid() {
		return ErrInvalidTaskStatus
	}

	if patch.Subtasks != nil {
		t.Subtasks = normalizeSubtasks(patch.Subtasks)
	}
	if patch.Status != "" {
		t.Status = patch.Status
	}
	if patch.SubmissionNote != nil {
		t.SubmissionNote = *patch.SubmissionNote
	}

	if actor.Role != models.RoleAdmin {
		requestedCompleted := t.Status == models.TaskStatusCompleted
		finishedAll := patch.Subtasks != nil && t.AllSubtasksCompleted()
		if requestedCompleted || finishedAll {
			t.Status = models.TaskStatusWaitingApproval
		}
	}

	t.UpdatedAt = now
	return nil
}

// Review applies the final admin decision. Approving to completed
// clears the rejection reason; rejecting back to in_progress or
// pending records one (defaulted when absent) and leaves the
// submission note untouched.
func Review(t *models.Task, status models.TaskStatus, rejectionReason string, now time.Time) error {
	switch status {
	case models.TaskStatusCompleted:
		t.Status = models.TaskStatusCompleted
		t.RejectionReason = ""
	case models.TaskStatusInProgress, models.TaskStatusPending:
		if rejectionReason == "" {
			rejectionReason = DefaultRejectionReason
		}
		t.Status = status
		t.RejectionReason = rejectionReason
	default:
		return ErrInvalidReviewStatus
	}
	t.UpdatedAt = now
	return nil
}

// normalizeSubtasks reconciles the status field with the legacy
// completed flag on a client-supplied array. Entries missing a status
// derive one from the flag; the flag is then re-derived from status so
// the two never disagree in storage.
func normalizeSubtasks(subtasks []models.Subtask) []models.Subtask {
	out := make([]models.Subtask, len(subtasks))
	for i, st := range subtasks {
		if st.Status == "" {
			if st.Completed {
				st.Status = models.SubtaskStatusCompleted
			} else {
				st.Status = models.SubtaskStatusPending
			}
		}
		st.Completed = st.Status == models.SubtaskStatusCompleted
		out[i] = st
	}
	return out
}
