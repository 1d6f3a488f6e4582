package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"taskflow/internal/authz"
	"taskflow/internal/metrics"
	"taskflow/internal/models"
	"taskflow/internal/repositories"
)

// directory loads the user table and the manager hierarchy built from it.
// Every request that needs the hierarchy takes a fresh snapshot.
type directory struct {
	users repositories.UserRepository
	log   logrus.FieldLogger
}

type snapshot struct {
	hierarchy *authz.Hierarchy
	users     []models.User
	byID      map[int64]*models.User
}

func (s *snapshot) user(id int64) *models.User {
	if s == nil {
		return nil
	}
	return s.byID[id]
}

// username returns the login of id, or "-" when unknown.
func (s *snapshot) username(id *int64) string {
	if id == nil {
		return "-"
	}
	if u := s.user(*id); u != nil {
		return u.Username
	}
	return "-"
}

func (d directory) load(ctx context.Context) (*snapshot, error) {
	users, err := d.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	h := authz.NewHierarchy(users)
	if loop := h.CycleMembers(); len(loop) > 0 {
		metrics.RecordHierarchyCycle()
		d.log.WithField("users", loop).Warn("[hierarchy][cycle] manager chain loops back on itself")
	}
	byID := make(map[int64]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	return &snapshot{hierarchy: h, users: users, byID: byID}, nil
}
