package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taskflow/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	SaveState(ctx context.Context, task *models.Task) error
	Archive(ctx context.Context, id int64) error
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, title, description, status, priority, type_id, assigned_to_id,
       start_date, final_deadline, folder_link, archived, created_at,
       submitted_at, completed_at, submission_remarks, completion_remarks`

func scanTask(s rowScanner) (models.Task, error) {
	var t models.Task
	err := s.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.TypeID, &t.AssignedToID,
		&t.StartDate, &t.FinalDeadline, &t.FolderLink, &t.Archived, &t.CreatedAt,
		&t.SubmittedAt, &t.CompletedAt, &t.SubmissionRemarks, &t.CompletionRemarks,
	)
	return t, err
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			title, description, status, priority, type_id, assigned_to_id,
			start_date, final_deadline, folder_link, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Status, task.Priority, task.TypeID, task.AssignedToID,
		task.StartDate, task.FinalDeadline, task.FolderLink, task.CreatedAt,
	).Scan(&task.ID)
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "task")
	}
	return &t, nil
}

// FindAll lists non-archived tasks matching filter, earliest deadline first.
func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{"archived = FALSE"}
	args := []interface{}{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.Priority != nil {
		add("priority = $%d", *filter.Priority)
	}
	if filter.TypeID != nil {
		add("type_id = $%d", *filter.TypeID)
	}
	if filter.AssignedToID != nil {
		add("assigned_to_id = $%d", *filter.AssignedToID)
	}
	if filter.DeadlineFrom != nil {
		add("final_deadline >= $%d", *filter.DeadlineFrom)
	}
	if filter.DeadlineTo != nil {
		add("final_deadline <= $%d", *filter.DeadlineTo)
	}

	baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	baseQuery += " ORDER BY final_deadline ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update writes the editable fields.
func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			title=$1, description=$2, priority=$3, type_id=$4, assigned_to_id=$5,
			start_date=$6, final_deadline=$7, folder_link=$8
		WHERE id=$9`
	res, err := r.db.ExecContext(ctx, query,
		task.Title, task.Description, task.Priority, task.TypeID, task.AssignedToID,
		task.StartDate, task.FinalDeadline, task.FolderLink, task.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(res, "task")
}

// SaveState writes the workflow fields: status, remarks and timestamps.
func (r *taskRepository) SaveState(ctx context.Context, task *models.Task) error {
	return saveTaskState(ctx, r.db, task)
}

func (r *taskRepository) Archive(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET archived=TRUE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "task")
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const saveTaskStateQuery = `
		UPDATE tasks SET
			status=$1, submitted_at=$2, completed_at=$3,
			submission_remarks=$4, completion_remarks=$5
		WHERE id=$6`

func saveTaskState(ctx context.Context, db execer, task *models.Task) error {
	res, err := db.ExecContext(ctx, saveTaskStateQuery,
		task.Status, task.SubmittedAt, task.CompletedAt,
		task.SubmissionRemarks, task.CompletionRemarks, task.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(res, "task")
}
