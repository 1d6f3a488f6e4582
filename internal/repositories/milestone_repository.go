package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"taskflow/internal/models"
)

type MilestoneRepository interface {
	Store(ctx context.Context, m *models.Milestone) error
	FindByID(ctx context.Context, id int64) (*models.Milestone, error)
	ListByTask(ctx context.Context, taskID int64) ([]models.Milestone, error)
	// ListByTasks loads the milestones of several tasks in one query.
	ListByTasks(ctx context.Context, taskIDs []int64) ([]models.Milestone, error)
	ListForActiveTasks(ctx context.Context) ([]models.Milestone, error)
	Update(ctx context.Context, m *models.Milestone) error
	// SaveStatus stores the milestone status and, in the same transaction,
	// the parent task's workflow state when task is not nil.
	SaveStatus(ctx context.Context, m *models.Milestone, task *models.Task) error
	SwapSequence(ctx context.Context, a, b *models.Milestone) error
	Delete(ctx context.Context, id int64) error
}

type milestoneRepository struct {
	db *sql.DB
}

func NewMilestoneRepository(db *sql.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

const milestoneColumns = `m.id, m.task_id, m.title, m.description, m.deadline, m.status, m.sequence, m.created_at`

func scanMilestone(s rowScanner) (models.Milestone, error) {
	var m models.Milestone
	err := s.Scan(&m.ID, &m.TaskID, &m.Title, &m.Description, &m.Deadline, &m.Status, &m.Sequence, &m.CreatedAt)
	return m, err
}

func (r *milestoneRepository) Store(ctx context.Context, m *models.Milestone) error {
	const q = `
		INSERT INTO task_milestones (task_id, title, description, deadline, status, sequence, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id`
	return r.db.QueryRowContext(ctx, q,
		m.TaskID, m.Title, m.Description, m.Deadline, m.Status, m.Sequence, m.CreatedAt,
	).Scan(&m.ID)
}

func (r *milestoneRepository) FindByID(ctx context.Context, id int64) (*models.Milestone, error) {
	m, err := scanMilestone(r.db.QueryRowContext(ctx,
		`SELECT `+milestoneColumns+` FROM task_milestones m WHERE m.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "milestone")
	}
	return &m, nil
}

func (r *milestoneRepository) ListByTask(ctx context.Context, taskID int64) ([]models.Milestone, error) {
	return r.list(ctx, `SELECT `+milestoneColumns+` FROM task_milestones m
		WHERE m.task_id = $1 ORDER BY m.sequence, m.id`, taskID)
}

func (r *milestoneRepository) ListByTasks(ctx context.Context, taskIDs []int64) ([]models.Milestone, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+milestoneColumns+` FROM task_milestones m
		WHERE m.task_id = ANY($1) ORDER BY m.task_id, m.sequence, m.id`, pq.Array(taskIDs))
}

func (r *milestoneRepository) ListForActiveTasks(ctx context.Context) ([]models.Milestone, error) {
	return r.list(ctx, `SELECT `+milestoneColumns+` FROM task_milestones m
		JOIN tasks t ON t.id = m.task_id
		WHERE t.archived = FALSE
		ORDER BY m.deadline, m.task_id, m.sequence`)
}

func (r *milestoneRepository) list(ctx context.Context, q string, args ...any) ([]models.Milestone, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *milestoneRepository) Update(ctx context.Context, m *models.Milestone) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE task_milestones SET title=$1, description=$2, deadline=$3 WHERE id=$4`,
		m.Title, m.Description, m.Deadline, m.ID)
	if err != nil {
		return err
	}
	return expectOne(res, "milestone")
}

func (r *milestoneRepository) SaveStatus(ctx context.Context, m *models.Milestone, task *models.Task) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE task_milestones SET status=$1 WHERE id=$2`, m.Status, m.ID)
		if err != nil {
			return err
		}
		if err := expectOne(res, "milestone"); err != nil {
			return err
		}
		if task == nil {
			return nil
		}
		return saveTaskState(ctx, tx, task)
	})
}

func (r *milestoneRepository) SwapSequence(ctx context.Context, a, b *models.Milestone) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, m := range []*models.Milestone{a, b} {
			if _, err := tx.ExecContext(ctx,
				`UPDATE task_milestones SET sequence=$1 WHERE id=$2`, m.Sequence, m.ID); err != nil {
				return fmt.Errorf("update sequence of milestone %d: %w", m.ID, err)
			}
		}
		return nil
	})
}

func (r *milestoneRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_milestones WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, "milestone")
}
