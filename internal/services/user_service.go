package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"taskflow/internal/authz"
	"taskflow/internal/models"
	"taskflow/internal/repositories"
)

// NewUserInput is what an admin supplies when creating an account.
type NewUserInput struct {
	Username       string      `json:"username" binding:"required"`
	Password       string      `json:"password" binding:"required"`
	FullName       string      `json:"full_name"`
	Email          string      `json:"email" binding:"omitempty,email"`
	TelegramChatID int64       `json:"telegram_chat_id"`
	Role           models.Role `json:"role"`
	Department     string      `json:"department"`
	ManagerID      *int64      `json:"manager_id"`
	Privileges     []string    `json:"privileges"`
}

var validate = validator.New()

type UserService interface {
	Create(ctx context.Context, in NewUserInput) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	SetManager(ctx context.Context, id int64, managerID *int64) error
	SetActive(ctx context.Context, actor *models.User, id int64, active bool) error
	SetPrivileges(ctx context.Context, id int64, codes []string) error
	// Assignable lists the active users actor may assign tasks to.
	Assignable(ctx context.Context, actor *models.User) ([]models.User, error)
	// CycleMembers lists users whose manager chain loops.
	CycleMembers(ctx context.Context) ([]int64, error)
}

type userService struct {
	repo repositories.UserRepository
	auth AuthService
	dir  directory
	now  func() time.Time
}

func NewUserService(repo repositories.UserRepository, auth AuthService, log logrus.FieldLogger) UserService {
	return &userService{
		repo: repo,
		auth: auth,
		dir:  directory{users: repo, log: log},
		now:  time.Now,
	}
}

func (s *userService) Create(ctx context.Context, in NewUserInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, invalid("username is required")
	}
	role := in.Role
	if role == "" {
		role = models.RoleStaff
	}
	if _, err := models.ParseRole(string(role)); err != nil {
		return nil, invalid("%v", err)
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		if err := validate.Var(email, "email"); err != nil {
			return nil, invalid("email %q is not valid", in.Email)
		}
	}
	codes, err := cleanPrivileges(in.Privileges)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, invalid("username %q is taken", username)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if in.ManagerID != nil {
		if _, err := s.repo.GetByID(ctx, *in.ManagerID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, invalid("manager %d does not exist", *in.ManagerID)
			}
			return nil, err
		}
	}

	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:       username,
		PasswordHash:   hash,
		FullName:       strings.TrimSpace(in.FullName),
		Email:          strings.TrimSpace(in.Email),
		TelegramChatID: in.TelegramChatID,
		Role:           role,
		Department:     strings.TrimSpace(in.Department),
		ManagerID:      in.ManagerID,
		IsActive:       true,
		CreatedAt:      s.now().UTC(),
		Privileges:     codes,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	return u, nil
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	return s.repo.ListAll(ctx)
}

// SetManager rejects a user managing themself and any change that would close
// a loop in the manager chain. A nil managerID clears the manager.
func (s *userService) SetManager(ctx context.Context, id int64, managerID *int64) error {
	snap, err := s.dir.load(ctx)
	if err != nil {
		return err
	}
	if snap.user(id) == nil {
		return fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	if managerID != nil {
		if *managerID == id {
			return invalid("a user cannot be their own manager")
		}
		if snap.user(*managerID) == nil {
			return invalid("manager %d does not exist", *managerID)
		}
		if snap.hierarchy.WouldCycle(id, *managerID) {
			return invalid("user %d already reports to user %d", *managerID, id)
		}
	}
	return fromRepo(s.repo.UpdateManager(ctx, id, managerID))
}

func (s *userService) SetActive(ctx context.Context, actor *models.User, id int64, active bool) error {
	if actor != nil && actor.ID == id && !active {
		return invalid("you cannot deactivate your own account")
	}
	return fromRepo(s.repo.SetActive(ctx, id, active))
}

func (s *userService) SetPrivileges(ctx context.Context, id int64, codes []string) error {
	clean, err := cleanPrivileges(codes)
	if err != nil {
		return err
	}
	return fromRepo(s.repo.SetPrivileges(ctx, id, clean))
}

func (s *userService) Assignable(ctx context.Context, actor *models.User) ([]models.User, error) {
	snap, err := s.dir.load(ctx)
	if err != nil {
		return nil, err
	}
	allowed := authz.AssignableIDs(snap.hierarchy, actor)
	out := make([]models.User, 0, len(allowed))
	for _, u := range snap.users {
		if !u.IsActive {
			continue
		}
		if actor.IsAdmin() || allowed.Has(u.ID) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *userService) CycleMembers(ctx context.Context) ([]int64, error) {
	users, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return authz.NewHierarchy(users).CycleMembers(), nil
}

func cleanPrivileges(codes []string) ([]string, error) {
	seen := map[string]bool{}
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		if !models.IsKnownPrivilege(c) {
			return nil, invalid("unknown privilege %q", c)
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}
