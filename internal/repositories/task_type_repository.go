package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taskflow/internal/models"
)

type TaskTypeRepository interface {
	Create(ctx context.Context, tt *models.TaskType) error
	GetByID(ctx context.Context, id int64) (*models.TaskType, error)
	// List returns types of department, or of every department when it is empty.
	List(ctx context.Context, department string, activeOnly bool) ([]models.TaskType, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type taskTypeRepository struct {
	db *sql.DB
}

func NewTaskTypeRepository(db *sql.DB) TaskTypeRepository {
	return &taskTypeRepository{db: db}
}

func (r *taskTypeRepository) Create(ctx context.Context, tt *models.TaskType) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO task_types (name, department, is_active) VALUES ($1,$2,$3) RETURNING id`,
		tt.Name, tt.Department, tt.IsActive,
	).Scan(&tt.ID)
}

func (r *taskTypeRepository) GetByID(ctx context.Context, id int64) (*models.TaskType, error) {
	var tt models.TaskType
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, department, is_active FROM task_types WHERE id = $1`, id,
	).Scan(&tt.ID, &tt.Name, &tt.Department, &tt.IsActive)
	if err != nil {
		return nil, notFound(err, "task type")
	}
	return &tt, nil
}

func (r *taskTypeRepository) List(ctx context.Context, department string, activeOnly bool) ([]models.TaskType, error) {
	q := `SELECT id, name, department, is_active FROM task_types`
	var (
		conds []string
		args  []any
	)
	if department != "" {
		args = append(args, department)
		conds = append(conds, fmt.Sprintf("department = $%d", len(args)))
	}
	if activeOnly {
		conds = append(conds, "is_active = TRUE")
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.TaskType
	for rows.Next() {
		var tt models.TaskType
		if err := rows.Scan(&tt.ID, &tt.Name, &tt.Department, &tt.IsActive); err != nil {
			return nil, err
		}
		out = append(out, tt)
	}
	return out, rows.Err()
}

func (r *taskTypeRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE task_types SET is_active=$1 WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	return expectOne(res, "task type")
}
