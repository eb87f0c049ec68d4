package models

import "time"

type TaskStatus string

const (
	TaskStatusPending         TaskStatus = "pending"
	TaskStatusProcessing      TaskStatus = "processing"
	TaskStatusInProgress      TaskStatus = "in_progress"
	TaskStatusWaitingApproval TaskStatus = "waiting_approval"
	TaskStatusCompleted       TaskStatus = "completed"
	TaskStatusOverdue         TaskStatus = "overdue"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusInProgress,
		TaskStatusWaitingApproval, TaskStatusCompleted, TaskStatusOverdue:
		return true
	}
	return false
}

// Terminal reports whether no further transitions apply. Overdue is
// not terminal: an overdue task can still be completed.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted
}

type SubtaskStatus string

const (
	SubtaskStatusPending         SubtaskStatus = "pending"
	SubtaskStatusWaitingApproval SubtaskStatus = "waiting_approval"
	SubtaskStatusCompleted       SubtaskStatus = "completed"
	SubtaskStatusRejected        SubtaskStatus = "rejected"
)

func (s SubtaskStatus) Valid() bool {
	switch s {
	case SubtaskStatusPending, SubtaskStatusWaitingApproval,
		SubtaskStatusCompleted, SubtaskStatusRejected:
		return true
	}
	return false
}

// Subtask is a value object embedded in a Task. The slice is stored as
// a single JSONB document, so the json tags define the wire and storage
// shape at once.
type Subtask struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Completed   bool          `json:"completed"`
	Status      SubtaskStatus `json:"status,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	ManagerNote string        `json:"managerNote,omitempty"`
}

// EffectiveStatus treats an empty status as pending. Tasks written
// before statuses existed carry only the completed flag.
func (s *Subtask) EffectiveStatus() SubtaskStatus {
	if s.Status == "" {
		if s.Completed {
			return SubtaskStatusCompleted
		}
		return SubtaskStatusPending
	}
	return s.Status
}

type Task struct {
	ID               string
	Title            string
	Description      string
	AssignedTo       string
	ManagerID        string
	AssignedBy       string
	PlanID           string
	Subtasks         []Subtask
	Status           TaskStatus
	SubmissionNote   string
	RejectionReason  string
	Deadline         time.Time
	CustomerDetails  map[string]any
	PaymentDetails   map[string]any
	ValuationDetails map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Subtask returns the subtask with the given id, or nil.
func (t *Task) Subtask(id string) *Subtask {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return &t.Subtasks[i]
		}
	}
	return nil
}

// AllSubtasksCompleted reports whether every subtask reached the
// completed status. A task without subtasks never counts as complete,
// so it cannot organically reach waiting_approval.
func (t *Task) AllSubtasksCompleted() bool {
	if len(t.Subtasks) == 0 {
		return false
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].EffectiveStatus() != SubtaskStatusCompleted {
			return false
		}
	}
	return true
}

// CompletionPercent iterates subtasks in their fixed creation order.
func (t *Task) CompletionPercent() int {
	if len(t.Subtasks) == 0 {
		return 0
	}
	done := 0
	for i := range t.Subtasks {
		if t.Subtasks[i].EffectiveStatus() == SubtaskStatusCompleted {
			done++
		}
	}
	return done * 100 / len(t.Subtasks)
}
