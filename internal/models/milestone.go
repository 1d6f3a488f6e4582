package models

import "time"

type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "Pending"
	MilestoneCompleted MilestoneStatus = "Completed"
)

type Milestone struct {
	ID          int64           `json:"id"`
	TaskID      int64           `json:"task_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Deadline    time.Time       `json:"deadline"`
	Status      MilestoneStatus `json:"status"`
	Sequence    int             `json:"sequence"`
	CreatedAt   time.Time       `json:"created_at"`
}
