// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusToDo               TaskStatus = "To Do"
	StatusInProgress         TaskStatus = "In Progress"
	StatusSubmittedForReview TaskStatus = "Submitted for Review"
	StatusApproved           TaskStatus = "Approved"
	StatusReturned           TaskStatus = "Returned"
	StatusCompleted          TaskStatus = "Completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusSubmittedForReview,
		StatusApproved, StatusReturned, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityNormal TaskPriority = "Normal"
	PriorityHigh   TaskPriority = "High"
	PriorityUrgent TaskPriority = "Urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task represents the structure of a task in the system.
type Task struct {
	ID                int64        `json:"id"`
	Title             string       `json:"title"`
	Description       *string      `json:"description,omitempty"`
	Status            TaskStatus   `json:"status"`
	Priority          TaskPriority `json:"priority"`
	TypeID            int64        `json:"type_id"`
	AssignedToID      *int64       `json:"assigned_to_id,omitempty"`
	StartDate         *time.Time   `json:"start_date,omitempty"`
	FinalDeadline     time.Time    `json:"final_deadline"`
	FolderLink        *string      `json:"folder_link,omitempty"`
	Archived          bool         `json:"archived"`
	CreatedAt         time.Time    `json:"created_at"`
	SubmittedAt       *time.Time   `json:"submitted_at,omitempty"`
	CompletedAt       *time.Time   `json:"completed_at,omitempty"`
	SubmissionRemarks *string      `json:"submission_remarks,omitempty"`
	CompletionRemarks *string      `json:"completion_remarks,omitempty"`
}

// IsAssignedTo reports whether the task is assigned to the given user id.
func (t *Task) IsAssignedTo(userID int64) bool {
	return t != nil && t.AssignedToID != nil && *t.AssignedToID == userID
}

// TaskFilter defines the available parameters for filtering tasks.
// Archived tasks are never returned.
type TaskFilter struct {
	Status       *TaskStatus
	Priority     *TaskPriority
	TypeID       *int64
	AssignedToID *int64
	DeadlineFrom *time.Time
	DeadlineTo   *time.Time
}
