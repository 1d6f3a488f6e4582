package authz

import "taskflow/internal/models"

// VisibleTasks narrows tasks to what actor may see in listings.
//
// Archived tasks are hidden from everybody. Admins see the rest. Other users see
// their own tasks while those are not waiting for review, and their
// subordinates' tasks only while they are waiting for review.
func VisibleTasks(h *Hierarchy, tasks []models.Task, actor *models.User) []models.Task {
	if actor == nil {
		return nil
	}
	var subs IDSet
	if !actor.IsAdmin() {
		subs, _ = h.Subordinates(actor.ID)
	}
	out := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		if visible(actor, subs, &tasks[i]) {
			out = append(out, tasks[i])
		}
	}
	return out
}

// CanView is the single-task form of VisibleTasks.
func CanView(h *Hierarchy, actor *models.User, task *models.Task) bool {
	if actor == nil || task == nil {
		return false
	}
	var subs IDSet
	if !actor.IsAdmin() {
		subs, _ = h.Subordinates(actor.ID)
	}
	return visible(actor, subs, task)
}

// VisibleMilestones keeps the milestones whose parent task is visible.
// Milestones whose task is missing from tasksByID are dropped.
func VisibleMilestones(h *Hierarchy, milestones []models.Milestone, tasksByID map[int64]*models.Task, actor *models.User) []models.Milestone {
	if actor == nil {
		return nil
	}
	var subs IDSet
	if !actor.IsAdmin() {
		subs, _ = h.Subordinates(actor.ID)
	}
	out := make([]models.Milestone, 0, len(milestones))
	for _, m := range milestones {
		t, ok := tasksByID[m.TaskID]
		if ok && visible(actor, subs, t) {
			out = append(out, m)
		}
	}
	return out
}

func visible(actor *models.User, subs IDSet, t *models.Task) bool {
	if t.Archived {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	if t.AssignedToID == nil {
		return false
	}
	inReview := t.Status == models.StatusSubmittedForReview
	if *t.AssignedToID == actor.ID {
		return !inReview
	}
	return inReview && subs.Has(*t.AssignedToID)
}
