package models

import "time"

// QuickTask is a one-line log of work already done. Reports treat it as a
// completed task.
type QuickTask struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Notes       *string   `json:"notes,omitempty"`
	CompletedOn time.Time `json:"completed_on"`
	CreatedByID int64     `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
}
