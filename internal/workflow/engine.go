// Package workflow holds the task status machine and the milestone tracker.
// It only mutates the entities it is handed; loading, saving and actor
// authorization belong to the caller.
package workflow

import (
	"errors"
	"strings"
	"time"

	"taskflow/internal/models"
)

// ErrTransitionNotAllowed is returned when the task's current status does not
// permit the requested change. The task is left untouched.
var ErrTransitionNotAllowed = errors.New("workflow: transition not allowed")

type Engine struct {
	now func() time.Time
}

func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

func (e *Engine) Now() time.Time {
	return e.now().UTC()
}

// Submit moves a task into review and records the submission remarks.
func (e *Engine) Submit(t *models.Task, remarks *string) error {
	switch t.Status {
	case models.StatusToDo, models.StatusInProgress, models.StatusReturned:
	default:
		return ErrTransitionNotAllowed
	}
	t.Status = models.StatusSubmittedForReview
	if remarks != nil {
		t.SubmissionRemarks = cleanRemarks(*remarks)
	}
	now := e.Now()
	t.SubmittedAt = &now
	return nil
}

func (e *Engine) Approve(t *models.Task) error {
	if t.Status != models.StatusSubmittedForReview {
		return ErrTransitionNotAllowed
	}
	t.Status = models.StatusApproved
	return nil
}

// Return sends a task back to its assignee. Submission remarks are kept.
func (e *Engine) Return(t *models.Task) error {
	if t.Status != models.StatusSubmittedForReview {
		return ErrTransitionNotAllowed
	}
	t.Status = models.StatusReturned
	return nil
}

// Complete closes the task. The status guard lives in authz.CanComplete, which
// lets admins complete from any state; only an already completed task is refused.
func (e *Engine) Complete(t *models.Task, remarks *string) error {
	if t.Status == models.StatusCompleted {
		return ErrTransitionNotAllowed
	}
	t.Status = models.StatusCompleted
	if remarks != nil {
		t.CompletionRemarks = cleanRemarks(*remarks)
	}
	now := e.Now()
	t.CompletedAt = &now
	return nil
}

func cleanRemarks(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
