package models

type TaskType struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	IsActive   bool   `json:"is_active"`
}
