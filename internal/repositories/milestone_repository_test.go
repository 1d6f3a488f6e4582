package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
)

func TestMilestoneListByTask(t *testing.T) {
	db, mock := newMock(t)
	deadline := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "task_id", "title", "description", "deadline", "status", "sequence", "created_at"}
	mock.ExpectQuery(`FROM task_milestones m\s+WHERE m.task_id = \$1 ORDER BY m.sequence`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), int64(1), "Draft", nil, deadline, "Pending", 1, deadline).
			AddRow(int64(2), int64(1), "Review", nil, deadline.AddDate(0, 0, 3), "Completed", 2, deadline))

	ms, err := NewMilestoneRepository(db).ListByTask(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, models.MilestoneCompleted, ms[1].Status)
	assert.Equal(t, 2, ms[1].Sequence)
}

func TestMilestoneListByTasks(t *testing.T) {
	db, mock := newMock(t)
	deadline := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "task_id", "title", "description", "deadline", "status", "sequence", "created_at"}
	mock.ExpectQuery(`WHERE m.task_id = ANY\(\$1\) ORDER BY m.task_id, m.sequence`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), int64(1), "Draft", nil, deadline, "Pending", 1, deadline).
			AddRow(int64(5), int64(3), "Ship", nil, deadline, "Pending", 1, deadline))

	repo := NewMilestoneRepository(db)
	ms, err := repo.ListByTasks(context.Background(), []int64{1, 3})
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, int64(3), ms[1].TaskID)

	ms, err = repo.ListByTasks(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMilestoneSwapSequenceIsTransactional(t *testing.T) {
	db, mock := newMock(t)
	a := &models.Milestone{ID: 1, Sequence: 2}
	b := &models.Milestone{ID: 2, Sequence: 1}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE task_milestones SET sequence`).WithArgs(2, int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE task_milestones SET sequence`).WithArgs(1, int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, NewMilestoneRepository(db).SwapSequence(context.Background(), a, b))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE task_milestones SET sequence`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE task_milestones SET sequence`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()
	assert.Error(t, NewMilestoneRepository(db).SwapSequence(context.Background(), a, b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMilestoneSaveStatusWithTask(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC)
	m := &models.Milestone{ID: 3, Status: models.MilestoneCompleted}
	task := &models.Task{ID: 1, Status: models.StatusCompleted, CompletedAt: &now}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE task_milestones SET status`).WithArgs(models.MilestoneCompleted, int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE tasks SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewMilestoneRepository(db).SaveStatus(context.Background(), m, task))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMilestoneDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM task_milestones`).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, NewMilestoneRepository(db).Delete(context.Background(), 9), ErrNotFound)
}
