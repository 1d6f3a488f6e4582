package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"taskflow/internal/models"
)

func taskFor(id, assignee int64, status models.TaskStatus) models.Task {
	return models.Task{ID: id, Title: "t", Status: status, AssignedToID: ptr(assignee)}
}

func ids(tasks []models.Task) []int64 {
	out := []int64{}
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestVisibleTasks(t *testing.T) {
	users := fixtureUsers()
	h := NewHierarchy(users)

	archived := taskFor(9, 3, models.StatusToDo)
	archived.Archived = true
	unassigned := models.Task{ID: 10, Status: models.StatusToDo}
	tasks := []models.Task{
		taskFor(1, 3, models.StatusToDo),
		taskFor(2, 3, models.StatusSubmittedForReview),
		taskFor(3, 4, models.StatusSubmittedForReview),
		taskFor(4, 4, models.StatusApproved),
		taskFor(5, 2, models.StatusInProgress),
		taskFor(6, 2, models.StatusSubmittedForReview),
		taskFor(7, 5, models.StatusSubmittedForReview),
		taskFor(8, 3, models.StatusCompleted),
		archived,
		unassigned,
	}

	cases := []struct {
		name  string
		actor int64
		want  []int64
	}{
		{"admin sees all but archived", 1, []int64{1, 2, 3, 4, 5, 6, 7, 8, 10}},
		{"manager sees own work and subordinates in review", 2, []int64{2, 3, 5}},
		{"middle manager", 3, []int64{1, 3, 8}},
		{"leaf sees own tasks not in review", 4, []int64{4}},
		{"peer sees nothing in review", 5, []int64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := VisibleTasks(h, tasks, userByID(t, users, tc.actor))
			assert.Equal(t, tc.want, ids(got))
		})
	}

	assert.Nil(t, VisibleTasks(h, tasks, nil))
}

func TestOwnTaskVisibleUnlessInReview(t *testing.T) {
	users := fixtureUsers()
	h := NewHierarchy(users)
	owner := userByID(t, users, 3)
	for _, st := range []models.TaskStatus{
		models.StatusToDo, models.StatusInProgress, models.StatusSubmittedForReview,
		models.StatusApproved, models.StatusReturned, models.StatusCompleted,
	} {
		task := taskFor(1, 3, st)
		assert.Equal(t, st != models.StatusSubmittedForReview, CanView(h, owner, &task), st)
	}
}

func TestSubordinateTaskVisibleOnlyInReview(t *testing.T) {
	users := fixtureUsers()
	h := NewHierarchy(users)
	manager := userByID(t, users, 2)
	for _, st := range []models.TaskStatus{
		models.StatusToDo, models.StatusInProgress, models.StatusSubmittedForReview,
		models.StatusApproved, models.StatusReturned, models.StatusCompleted,
	} {
		task := taskFor(1, 4, st)
		assert.Equal(t, st == models.StatusSubmittedForReview, CanView(h, manager, &task), st)
	}
}

func TestVisibleMilestones(t *testing.T) {
	users := fixtureUsers()
	h := NewHierarchy(users)

	own := taskFor(1, 3, models.StatusInProgress)
	review := taskFor(2, 4, models.StatusSubmittedForReview)
	tasksByID := map[int64]*models.Task{1: &own, 2: &review}
	milestones := []models.Milestone{
		{ID: 11, TaskID: 1},
		{ID: 12, TaskID: 2},
		{ID: 13, TaskID: 99},
	}

	got := VisibleMilestones(h, milestones, tasksByID, userByID(t, users, 3))
	assert.Len(t, got, 2)

	got = VisibleMilestones(h, milestones, tasksByID, userByID(t, users, 2))
	if assert.Len(t, got, 1) {
		assert.Equal(t, int64(12), got[0].ID)
	}
}
