package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"taskflow/internal/models"
)

type QuickTaskFilter struct {
	CreatedByID *int64
	From        *time.Time
	To          *time.Time
}

type QuickTaskRepository interface {
	Store(ctx context.Context, q *models.QuickTask) error
	List(ctx context.Context, filter QuickTaskFilter) ([]models.QuickTask, error)
}

type quickTaskRepository struct {
	db *sql.DB
}

func NewQuickTaskRepository(db *sql.DB) QuickTaskRepository {
	return &quickTaskRepository{db: db}
}

func (r *quickTaskRepository) Store(ctx context.Context, q *models.QuickTask) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO quick_tasks (title, notes, completed_on, created_by_id, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`,
		q.Title, q.Notes, q.CompletedOn, q.CreatedByID, q.CreatedAt,
	).Scan(&q.ID)
}

// List returns quick logs, most recent first.
func (r *quickTaskRepository) List(ctx context.Context, filter QuickTaskFilter) ([]models.QuickTask, error) {
	q := `SELECT id, title, notes, completed_on, created_by_id, created_at FROM quick_tasks`
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.CreatedByID != nil {
		add("created_by_id = $%d", *filter.CreatedByID)
	}
	if filter.From != nil {
		add("completed_on >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("completed_on <= $%d", *filter.To)
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY completed_on DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.QuickTask
	for rows.Next() {
		var qt models.QuickTask
		if err := rows.Scan(&qt.ID, &qt.Title, &qt.Notes, &qt.CompletedOn, &qt.CreatedByID, &qt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, qt)
	}
	return out, rows.Err()
}
