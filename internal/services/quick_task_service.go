package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskflow/internal/models"
	"taskflow/internal/repositories"
)

type QuickTaskService interface {
	// Create logs finished work; a nil completedOn means today.
	Create(ctx context.Context, actor *models.User, title string, notes *string, completedOn *time.Time) (*models.QuickTask, error)
	// List returns every log to admins and the actor's own logs otherwise.
	List(ctx context.Context, actor *models.User, from, to *time.Time) ([]models.QuickTask, error)
}

type quickTaskService struct {
	repo repositories.QuickTaskRepository
	now  func() time.Time
}

func NewQuickTaskService(repo repositories.QuickTaskRepository, now func() time.Time) QuickTaskService {
	if now == nil {
		now = time.Now
	}
	return &quickTaskService{repo: repo, now: now}
}

func (s *quickTaskService) Create(ctx context.Context, actor *models.User, title string, notes *string, completedOn *time.Time) (*models.QuickTask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("title is required")
	}
	now := s.now().UTC()
	day := dayOf(now)
	if completedOn != nil {
		day = dayOf(*completedOn)
	}
	qt := &models.QuickTask{
		Title:       title,
		Notes:       trimOptional(notes),
		CompletedOn: day,
		CreatedByID: actor.ID,
		CreatedAt:   now,
	}
	if err := s.repo.Store(ctx, qt); err != nil {
		return nil, fmt.Errorf("store quick task: %w", err)
	}
	return qt, nil
}

func (s *quickTaskService) List(ctx context.Context, actor *models.User, from, to *time.Time) ([]models.QuickTask, error) {
	filter := repositories.QuickTaskFilter{From: from, To: to}
	if !actor.IsAdmin() {
		filter.CreatedByID = &actor.ID
	}
	return s.repo.List(ctx, filter)
}
