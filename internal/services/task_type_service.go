package services

import (
	"context"
	"fmt"
	"strings"

	"taskflow/internal/models"
	"taskflow/internal/repositories"
)

type TaskTypeService interface {
	// List returns every type to admins and the active types of their own
	// department to everybody else.
	List(ctx context.Context, actor *models.User) ([]models.TaskType, error)
	Create(ctx context.Context, actor *models.User, name, department string) (*models.TaskType, error)
	Toggle(ctx context.Context, id int64) (*models.TaskType, error)
}

type taskTypeService struct {
	repo repositories.TaskTypeRepository
}

func NewTaskTypeService(repo repositories.TaskTypeRepository) TaskTypeService {
	return &taskTypeService{repo: repo}
}

func (s *taskTypeService) List(ctx context.Context, actor *models.User) ([]models.TaskType, error) {
	if actor.IsAdmin() {
		return s.repo.List(ctx, "", false)
	}
	return s.repo.List(ctx, actor.Department, true)
}

// Create adds an active type. department defaults to the admin's own.
func (s *taskTypeService) Create(ctx context.Context, actor *models.User, name, department string) (*models.TaskType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("type name is required")
	}
	department = strings.TrimSpace(department)
	if department == "" {
		department = actor.Department
	}
	tt := &models.TaskType{Name: name, Department: department, IsActive: true}
	if err := s.repo.Create(ctx, tt); err != nil {
		return nil, fmt.Errorf("create task type: %w", err)
	}
	return tt, nil
}

func (s *taskTypeService) Toggle(ctx context.Context, id int64) (*models.TaskType, error) {
	tt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	tt.IsActive = !tt.IsActive
	if err := s.repo.SetActive(ctx, id, tt.IsActive); err != nil {
		return nil, fromRepo(err)
	}
	return tt, nil
}
