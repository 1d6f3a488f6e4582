package workflow

import (
	"strings"
	"time"

	"taskflow/internal/models"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

func (d Direction) delta() (int, bool) {
	switch d {
	case Up:
		return -1, true
	case Down:
		return 1, true
	}
	return 0, false
}

// NewMilestone carries the caller-supplied fields of a milestone.
// A nil Sequence appends the milestone after the existing ones.
type NewMilestone struct {
	Title       string
	Deadline    time.Time
	Description *string
	Sequence    *int
}

// AddMilestone builds the milestone to be stored for task. Explicit sequences
// are taken as given, even when they collide with an existing one.
func (e *Engine) AddMilestone(t *models.Task, existing []models.Milestone, in NewMilestone) (models.Milestone, error) {
	if t.Archived || t.Status == models.StatusCompleted {
		return models.Milestone{}, ErrTransitionNotAllowed
	}
	seq := len(existing) + 1
	if in.Sequence != nil {
		seq = *in.Sequence
	}
	var desc *string
	if in.Description != nil {
		desc = cleanRemarks(*in.Description)
	}
	return models.Milestone{
		TaskID:      t.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: desc,
		Deadline:    in.Deadline,
		Status:      models.MilestonePending,
		Sequence:    seq,
		CreatedAt:   e.Now(),
	}, nil
}

// SequenceTaken reports whether seq is already used by one of milestones.
func SequenceTaken(milestones []models.Milestone, seq int) bool {
	for _, m := range milestones {
		if m.Sequence == seq {
			return true
		}
	}
	return false
}

// AllMilestonesCompleted is the auto-completion guard: at least one milestone,
// and all of them Completed.
func AllMilestonesCompleted(milestones []models.Milestone) bool {
	if len(milestones) == 0 {
		return false
	}
	for _, m := range milestones {
		if m.Status != models.MilestoneCompleted {
			return false
		}
	}
	return true
}

// SetMilestoneStatus updates milestones[idx] and completes the task once every
// milestone is done. It reports whether the task was completed by this call.
// An existing completion timestamp is never overwritten.
func (e *Engine) SetMilestoneStatus(t *models.Task, milestones []models.Milestone, idx int, status models.MilestoneStatus) bool {
	milestones[idx].Status = status
	if !AllMilestonesCompleted(milestones) {
		return false
	}
	changed := t.Status != models.StatusCompleted
	t.Status = models.StatusCompleted
	if t.CompletedAt == nil {
		now := e.Now()
		t.CompletedAt = &now
		changed = true
	}
	return changed
}

// MoveMilestone swaps milestones[idx] with its neighbour at sequence±1 and
// returns the neighbour's index. ok is false, and nothing changes, when the
// direction is unknown or no neighbour holds that sequence.
func MoveMilestone(milestones []models.Milestone, idx int, dir Direction) (swapped int, ok bool) {
	delta, valid := dir.delta()
	if !valid {
		return -1, false
	}
	target := milestones[idx].Sequence + delta
	for i := range milestones {
		if i == idx || milestones[i].TaskID != milestones[idx].TaskID || milestones[i].Sequence != target {
			continue
		}
		milestones[idx].Sequence, milestones[i].Sequence = milestones[i].Sequence, milestones[idx].Sequence
		return i, true
	}
	return -1, false
}

// DeleteMilestone drops milestones[idx]. Remaining sequences keep their gap.
func DeleteMilestone(milestones []models.Milestone, idx int) []models.Milestone {
	out := make([]models.Milestone, 0, len(milestones)-1)
	out = append(out, milestones[:idx]...)
	return append(out, milestones[idx+1:]...)
}

// EditMilestone changes title and deadline; the task is not touched.
func EditMilestone(m *models.Milestone, title string, deadline time.Time) {
	m.Title = strings.TrimSpace(title)
	m.Deadline = deadline
}

// IndexOf finds the milestone with the given id.
func IndexOf(milestones []models.Milestone, id int64) int {
	for i := range milestones {
		if milestones[i].ID == id {
			return i
		}
	}
	return -1
}
