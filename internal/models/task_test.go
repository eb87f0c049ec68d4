package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatusValid(t *testing.T) {
	for _, status := range []TaskStatus{
		TaskStatusPending, TaskStatusProcessing, TaskStatusInProgress,
		TaskStatusWaitingApproval, TaskStatusCompleted, TaskStatusOverdue,
	} {
		assert.True(t, status.Valid(), "%s", status)
	}
	assert.False(t, TaskStatus("archived").Valid())
	assert.False(t, TaskStatus("").Valid())
}

func TestTaskStatusTerminal(t *testing.T) {
	assert.True(t, TaskStatusCompleted.Terminal())
	assert.False(t, TaskStatusOverdue.Terminal())
	assert.False(t, TaskStatusWaitingApproval.Terminal())
}

func TestSubtaskStatusValid(t *testing.T) {
	for _, status := range []SubtaskStatus{
		SubtaskStatusPending, SubtaskStatusWaitingApproval,
		SubtaskStatusCompleted, SubtaskStatusRejected,
	} {
		assert.True(t, status.Valid(), "%s", status)
	}
	assert.False(t, SubtaskStatus("done").Valid())
}

func TestSubtaskEffectiveStatus(t *testing.T) {
	assert.Equal(t, SubtaskStatusPending, (&Subtask{}).EffectiveStatus())
	assert.Equal(t, SubtaskStatusCompleted, (&Subtask{Completed: true}).EffectiveStatus())
	assert.Equal(t, SubtaskStatusRejected, (&Subtask{Status: SubtaskStatusRejected, Completed: true}).EffectiveStatus())
}

func TestTaskSubtaskLookup(t *testing.T) {
	task := &Task{Subtasks: []Subtask{{ID: "a"}, {ID: "b"}}}

	found := task.Subtask("b")
	if assert.NotNil(t, found) {
		// The pointer must address the slice element so mutations stick.
		found.Reason = "updated"
		assert.Equal(t, "updated", task.Subtasks[1].Reason)
	}
	assert.Nil(t, task.Subtask("zzz"))
}

func TestAllSubtasksCompleted(t *testing.T) {
	empty := &Task{}
	assert.False(t, empty.AllSubtasksCompleted())

	partial := &Task{Subtasks: []Subtask{
		{ID: "a", Status: SubtaskStatusCompleted},
		{ID: "b", Status: SubtaskStatusWaitingApproval},
	}}
	assert.False(t, partial.AllSubtasksCompleted())

	all := &Task{Subtasks: []Subtask{
		{ID: "a", Status: SubtaskStatusCompleted},
		{ID: "b", Completed: true}, // legacy flag only
	}}
	assert.True(t, all.AllSubtasksCompleted())
}

func TestCompletionPercent(t *testing.T) {
	assert.Zero(t, (&Task{}).CompletionPercent())

	task := &Task{Subtasks: []Subtask{
		{ID: "a", Status: SubtaskStatusCompleted},
		{ID: "b", Status: SubtaskStatusPending},
		{ID: "c", Status: SubtaskStatusRejected},
	}}
	assert.Equal(t, 33, task.CompletionPercent())

	task.Subtasks[1].Status = SubtaskStatusCompleted
	task.Subtasks[2].Status = SubtaskStatusCompleted
	assert.Equal(t, 100, task.CompletionPercent())
}
