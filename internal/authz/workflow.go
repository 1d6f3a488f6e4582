package authz

import "taskflow/internal/models"

// CanSubmit: only the assignee, and only from To Do, In Progress or Returned.
func CanSubmit(actor *models.User, task *models.Task) bool {
	if actor == nil || task == nil || !task.IsAssignedTo(actor.ID) {
		return false
	}
	switch task.Status {
	case models.StatusToDo, models.StatusInProgress, models.StatusReturned:
		return true
	}
	return false
}

// CanReview covers both approve and return. The reviewer must be able to
// assign to the task's assignee, which includes the assignee themself.
func CanReview(h *Hierarchy, actor *models.User, task *models.Task) bool {
	if actor == nil || task == nil || task.AssignedToID == nil {
		return false
	}
	return task.Status == models.StatusSubmittedForReview && canAssignID(h, actor, *task.AssignedToID)
}

// CanComplete lets admins complete anything and anybody complete an approved task.
func CanComplete(actor *models.User, task *models.Task) bool {
	if actor == nil || task == nil {
		return false
	}
	return actor.IsAdmin() || task.Status == models.StatusApproved
}

// CanEdit guards field edits and milestone changes. Completed and archived
// tasks are frozen for everybody.
func CanEdit(h *Hierarchy, actor *models.User, task *models.Task) bool {
	if actor == nil || task == nil {
		return false
	}
	if task.Archived || task.Status == models.StatusCompleted {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	if task.AssignedToID == nil {
		return false
	}
	return canAssignID(h, actor, *task.AssignedToID)
}

// CanManageMilestones guards milestone status, ordering, edits and deletion.
// Unlike CanEdit it stays open once the task is completed, so milestones can
// still be ticked off after a manual completion.
func CanManageMilestones(h *Hierarchy, actor *models.User, task *models.Task) bool {
	if actor == nil || task == nil || task.Archived {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return task.AssignedToID != nil && canAssignID(h, actor, *task.AssignedToID)
}
