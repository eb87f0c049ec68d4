package approval

import (
	"time"

	"github.com/taskdesk/taskdesk/internal/models"
)

// Overdue reports whether the sweep would reclassify the task:
// deadline passed and status neither completed nor already overdue.
// Completed tasks are never reclassified, and a task marked overdue
// stays overdue until completed through the normal flow.
func Overdue(t *models.Task, now time.Time) bool {
	if t.Status == models.TaskStatusCompleted || t.Status == models.TaskStatusOverdue {
		return false
	}
	return t.Deadline.Before(now)
}

// Sweep reclassifies every overdue task in place and returns how many
// changed. Running it twice with the same clock is a no-op the second
// time. The services layer runs the equivalent blanket UPDATE before
// every listing query so callers never observe a pre-sweep state.
func Sweep(tasks []*models.Task, now time.Time) int {
	swept := 0
	for _, t := range tasks {
		if Overdue(t, now) {
			t.Status = models.TaskStatusOverdue
			t.UpdatedAt = now
			swept++
		}
	}
	return swept
}
