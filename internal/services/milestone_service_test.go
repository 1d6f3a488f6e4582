package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
	"taskflow/internal/workflow"
)

type milestoneFixture struct {
	users  *fakeUsers
	tasks  *fakeTasks
	ms     *fakeMilestones
	events *recordingPublisher
	svc    MilestoneService
}

func newMilestoneFixture(tasks []models.Task, ms ...models.Milestone) *milestoneFixture {
	f := &milestoneFixture{
		users:  newFakeUsers(orgUsers()...),
		tasks:  newFakeTasks(tasks...),
		events: &recordingPublisher{},
	}
	f.ms = newFakeMilestones(f.tasks, ms...)
	f.svc = NewMilestoneService(f.ms, f.tasks, f.users, testEngine(), f.events, testLog())
	return f
}

func milestone(id, taskID int64, seq int, status models.MilestoneStatus) models.Milestone {
	return models.Milestone{ID: id, TaskID: taskID, Title: "m", Deadline: day("2026-02-20"), Status: status, Sequence: seq}
}

func TestAddMilestone(t *testing.T) {
	f := newMilestoneFixture([]models.Task{assigned(1, 4, models.StatusInProgress, "2026-03-01")},
		milestone(1, 1, 1, models.MilestonePending))
	ctx := context.Background()

	m, err := f.svc.Add(ctx, actor(f.users, 3), 1, MilestoneInput{Title: " Draft ", Deadline: day("2026-02-15")})
	require.NoError(t, err)
	assert.Equal(t, "Draft", m.Title)
	assert.Equal(t, 2, m.Sequence)
	assert.Equal(t, models.MilestonePending, m.Status)

	m, err = f.svc.Add(ctx, actor(f.users, 4), 1, MilestoneInput{Title: "Again", Deadline: day("2026-02-15"), Sequence: ptr(1)})
	require.NoError(t, err, "colliding sequences are stored as given")
	assert.Equal(t, 1, m.Sequence)

	_, err = f.svc.Add(ctx, actor(f.users, 5), 1, MilestoneInput{Title: "x", Deadline: day("2026-02-15")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Add(ctx, actor(f.users, 4), 1, MilestoneInput{Title: "", Deadline: day("2026-02-15")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddMilestoneToCompletedTask(t *testing.T) {
	f := newMilestoneFixture([]models.Task{assigned(1, 4, models.StatusCompleted, "2026-03-01")})
	_, err := f.svc.Add(context.Background(), actor(f.users, 1), 1, MilestoneInput{Title: "late", Deadline: day("2026-02-15")})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLastMilestoneCompletesTask(t *testing.T) {
	f := newMilestoneFixture([]models.Task{assigned(1, 4, models.StatusInProgress, "2026-03-01")},
		milestone(1, 1, 1, models.MilestoneCompleted),
		milestone(2, 1, 2, models.MilestonePending),
	)
	ctx := context.Background()

	res, err := f.svc.SetStatus(ctx, actor(f.users, 3), 2, models.MilestoneCompleted)
	require.NoError(t, err)
	assert.True(t, res.TaskCompleted)
	assert.Equal(t, models.StatusCompleted, res.Task.Status)
	require.NotNil(t, res.Task.CompletedAt)
	assert.Equal(t, fixedNow, *res.Task.CompletedAt)

	stored := f.tasks.get(1)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, EventTaskCompleted, f.events.events[0].Kind)
	assert.Equal(t, []int64{4}, f.events.events[0].Audience)

	res, err = f.svc.SetStatus(ctx, actor(f.users, 3), 2, models.MilestoneCompleted)
	require.NoError(t, err)
	assert.False(t, res.TaskCompleted, "idempotent")
	assert.Equal(t, fixedNow, *f.tasks.get(1).CompletedAt)
	assert.Len(t, f.events.events, 1)
}

func TestReopeningMilestoneKeepsTaskCompleted(t *testing.T) {
	f := newMilestoneFixture([]models.Task{assigned(1, 4, models.StatusCompleted, "2026-03-01")},
		milestone(1, 1, 1, models.MilestoneCompleted))

	res, err := f.svc.SetStatus(context.Background(), actor(f.users, 4), 1, models.MilestonePending)
	require.NoError(t, err)
	assert.False(t, res.TaskCompleted)
	assert.Equal(t, models.StatusCompleted, f.tasks.get(1).Status)
	assert.Equal(t, 0, f.tasks.saves)
}

func TestSetStatusRejects(t *testing.T) {
	archived := assigned(2, 4, models.StatusInProgress, "2026-03-01")
	archived.Archived = true
	f := newMilestoneFixture([]models.Task{assigned(1, 4, models.StatusInProgress, "2026-03-01"), archived},
		milestone(1, 1, 1, models.MilestonePending),
		milestone(2, 2, 1, models.MilestonePending),
	)
	ctx := context.Background()

	_, err := f.svc.SetStatus(ctx, actor(f.users, 5), 1, models.MilestoneCompleted)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.SetStatus(ctx, actor(f.users, 1), 2, models.MilestoneCompleted)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.SetStatus(ctx, actor(f.users, 4), 1, "Done")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.SetStatus(ctx, actor(f.users, 4), 99, models.MilestoneCompleted)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoveMilestone(t *testing.T) {
	f := newMilestoneFixture([]models.Task{assigned(1, 4, models.StatusInProgress, "2026-03-01")},
		milestone(1, 1, 1, models.MilestonePending),
		milestone(2, 1, 2, models.MilestonePending),
		milestone(3, 1, 4, models.MilestonePending),
	)
	ctx := context.Background()
	staff := actor(f.users, 4)

	got, err := f.svc.Move(ctx, staff, 2, workflow.Up)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1, 3}, []int64{got[0].ID, got[1].ID, got[2].ID})

	got, err = f.svc.Move(ctx, staff, 3, workflow.Up)
	require.NoError(t, err, "gap below: nothing to swap with")
	assert.Equal(t, 4, got[2].Sequence)

	_, err = f.svc.Move(ctx, staff, 1, "sideways")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEditAndDeleteMilestone(t *testing.T) {
	f := newMilestoneFixture([]models.Task{assigned(1, 4, models.StatusInProgress, "2026-03-01")},
		milestone(1, 1, 1, models.MilestonePending),
		milestone(2, 1, 2, models.MilestonePending),
	)
	ctx := context.Background()

	m, err := f.svc.Edit(ctx, actor(f.users, 2), 1, MilestoneInput{Title: "Outline", Deadline: day("2026-02-18"), Description: ptr("  ")})
	require.NoError(t, err)
	assert.Equal(t, "Outline", m.Title)
	assert.Nil(t, m.Description)
	assert.Equal(t, models.StatusInProgress, f.tasks.get(1).Status)

	require.NoError(t, f.svc.Delete(ctx, actor(f.users, 4), 1))
	left, err := f.svc.List(ctx, actor(f.users, 4), 1)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, 2, left[0].Sequence, "remaining sequences keep their gap")

	assert.ErrorIs(t, f.svc.Delete(ctx, actor(f.users, 5), 2), ErrForbidden)
}
