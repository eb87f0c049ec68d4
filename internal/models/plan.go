package models

import "time"

// PlanSubtask is a template entry. Only the title survives into a
// Task's subtasks; maxDays and isMandatory drive creation-time UI.
type PlanSubtask struct {
	Title       string `json:"title"`
	MaxDays     int    `json:"maxDays"`
	IsMandatory bool   `json:"isMandatory"`
}

// PlanVariant is a named sub-template with its own duration and
// subtask list, selectable at task-creation time.
type PlanVariant struct {
	Name     string        `json:"name"`
	Duration int           `json:"duration"`
	Subtasks []PlanSubtask `json:"subtasks"`
}

type Plan struct {
	ID          string
	Name        string
	Description string
	MaxDays     int
	Subtasks    []PlanSubtask
	Variants    []PlanVariant
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Variant returns the named variant, or nil.
func (p *Plan) Variant(name string) *PlanVariant {
	for i := range p.Variants {
		if p.Variants[i].Name == name {
			return &p.Variants[i]
		}
	}
	return nil
}
