package models

// TaskEvent is pushed to connected clients and notification channels after a
// workflow change. Audience holds the user ids that should receive it.
type TaskEvent struct {
	Kind     string     `json:"kind"`
	TaskID   int64      `json:"task_id"`
	Title    string     `json:"title"`
	Status   TaskStatus `json:"status"`
	ActorID  int64      `json:"actor_id"`
	Audience []int64    `json:"-"`
}
