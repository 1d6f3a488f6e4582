package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
)

var taskCols = []string{
	"id", "title", "description", "status", "priority", "type_id", "assigned_to_id",
	"start_date", "final_deadline", "folder_link", "archived", "created_at",
	"submitted_at", "completed_at", "submission_remarks", "completion_remarks",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestTaskFindByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTaskRepository(db)
	deadline := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM tasks WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(taskCols).AddRow(
			int64(5), "Write report", nil, "To Do", "High", int64(2), int64(9),
			nil, deadline, "https://drive/x", false, created,
			nil, nil, nil, nil,
		))

	task, err := repo.FindByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, models.StatusToDo, task.Status)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	require.NotNil(t, task.AssignedToID)
	assert.Equal(t, int64(9), *task.AssignedToID)
	assert.Nil(t, task.Description)
	assert.Equal(t, "https://drive/x", *task.FolderLink)
	assert.Equal(t, deadline, task.FinalDeadline)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskFindByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM tasks WHERE id = \$1`).WithArgs(int64(404)).WillReturnError(sql.ErrNoRows)

	_, err := NewTaskRepository(db).FindByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskFindAllFilters(t *testing.T) {
	db, mock := newMock(t)
	status := models.StatusSubmittedForReview
	assignee := int64(3)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE archived = FALSE AND status = \$1 AND assigned_to_id = \$2 AND final_deadline >= \$3 ORDER BY final_deadline ASC`).
		WithArgs(status, assignee, from).
		WillReturnRows(sqlmock.NewRows(taskCols))

	tasks, err := NewTaskRepository(db).FindAll(context.Background(), models.TaskFilter{
		Status:       &status,
		AssignedToID: &assignee,
		DeadlineFrom: &from,
	})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskSaveState(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	remarks := "done"
	task := &models.Task{ID: 4, Status: models.StatusSubmittedForReview, SubmittedAt: &now, SubmissionRemarks: &remarks}

	mock.ExpectExec(`UPDATE tasks SET`).
		WithArgs(task.Status, task.SubmittedAt, task.CompletedAt, task.SubmissionRemarks, task.CompletionRemarks, int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, NewTaskRepository(db).SaveState(context.Background(), task))

	mock.ExpectExec(`UPDATE tasks SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, NewTaskRepository(db).SaveState(context.Background(), task), ErrNotFound)
}
