// Package approval holds the task and subtask lifecycle rules. It is
// pure: functions mutate the in-memory aggregate and never touch the
// store, so the services layer decides when a change is persisted.
package approval

import "github.com/taskdesk/taskdesk/internal/models"

// Operation names an action an actor requests against a task.
type Operation string

const (
	// OpProgressSave covers saving the subtask array, requesting a
	// status change and attaching a submission note.
	OpProgressSave Operation = "task.progress_save"
	// OpTaskReview is the final admin approve/reject of a task.
	OpTaskReview Operation = "task.review"
	// OpSubtaskMarkDone is the assignee marking one subtask done.
	OpSubtaskMarkDone Operation = "subtask.mark_done"
	// OpSubtaskReview is the manager approving or rejecting one
	// subtask.
	OpSubtaskReview Operation = "subtask.review"
)

// Decision is the tagged allow/deny result of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

const reasonNotAuthorized = "Not authorized"

// Authorize resolves the actor's relationship to the task and decides
// whether the operation may proceed. Rules are evaluated in order:
//
//  1. Admins may do anything.
//  2. Subtask review requires the actor to be the task's manager.
//     A task without a manager falls back to admin-only review.
//  3. Progress saves and subtask mark-done require the actor to be
//     the assignee or the task's manager.
//  4. Everything else is denied.
//
// A deny must leave the task untouched; callers fail closed.
func Authorize(actor *models.User, task *models.Task, op Operation) Decision {
	if actor.Role == models.RoleAdmin {
		return allow()
	}

	switch op {
	case OpSubtaskReview:
		if task.ManagerID != "" && actor.ID == task.ManagerID {
			return allow()
		}
	case OpProgressSave, OpSubtaskMarkDone:
		if actor.ID == task.AssignedTo {
			return allow()
		}
		if task.ManagerID != "" && actor.ID == task.ManagerID {
			return allow()
		}
	}
	return deny(reasonNotAuthorized)
}
