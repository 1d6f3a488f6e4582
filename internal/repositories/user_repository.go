package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"taskflow/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ListAll(ctx context.Context) ([]models.User, error)
	UpdateManager(ctx context.Context, id int64, managerID *int64) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetPrivileges(ctx context.Context, id int64, codes []string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, password_hash, full_name, email, telegram_chat_id,
       role, department, manager_id, is_active, created_at`

func scanUser(s rowScanner) (models.User, error) {
	var u models.User
	err := s.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.TelegramChatID,
		&u.Role, &u.Department, &u.ManagerID, &u.IsActive, &u.CreatedAt,
	)
	return u, err
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		const q = `
			INSERT INTO users (username, password_hash, full_name, email, telegram_chat_id,
			                   role, department, manager_id, is_active)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING id, created_at`
		err := tx.QueryRowContext(ctx, q,
			user.Username, user.PasswordHash, user.FullName, user.Email, user.TelegramChatID,
			user.Role, user.Department, user.ManagerID, user.IsActive,
		).Scan(&user.ID, &user.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return replacePrivileges(ctx, tx, user.ID, user.Privileges)
	})
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user")
	}
	if u.Privileges, err = r.privilegesOf(ctx, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, notFound(err, "user")
	}
	if u.Privileges, err = r.privilegesOf(ctx, u.ID); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListAll returns every user, inactive ones included, since the manager
// hierarchy is built from all of them.
func (r *userRepository) ListAll(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	index := map[int64]int{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		index[u.ID] = len(users)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := r.db.QueryContext(ctx, `
		SELECT up.user_id, p.code
		FROM user_privileges up JOIN privileges p ON p.id = up.privilege_id
		ORDER BY p.code`)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var (
			userID int64
			code   string
		)
		if err := prows.Scan(&userID, &code); err != nil {
			return nil, err
		}
		if i, ok := index[userID]; ok {
			users[i].Privileges = append(users[i].Privileges, code)
		}
	}
	return users, prows.Err()
}

func (r *userRepository) UpdateManager(ctx context.Context, id int64, managerID *int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET manager_id=$1 WHERE id=$2`, managerID, id)
	if err != nil {
		return err
	}
	return expectOne(res, "user")
}

func (r *userRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_active=$1 WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	return expectOne(res, "user")
}

func (r *userRepository) SetPrivileges(ctx context.Context, id int64, codes []string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_privileges WHERE user_id=$1`, id); err != nil {
			return err
		}
		return replacePrivileges(ctx, tx, id, codes)
	})
}

func (r *userRepository) privilegesOf(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.code
		FROM user_privileges up JOIN privileges p ON p.id = up.privilege_id
		WHERE up.user_id = $1
		ORDER BY p.code`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

func replacePrivileges(ctx context.Context, tx *sql.Tx, userID int64, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_privileges (user_id, privilege_id)
		SELECT $1, id FROM privileges WHERE code = ANY($2)
		ON CONFLICT DO NOTHING`, userID, pq.Array(codes))
	if err != nil {
		return fmt.Errorf("insert privileges: %w", err)
	}
	return nil
}

func expectOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
