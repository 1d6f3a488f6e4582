package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"taskflow/internal/authz"
	"taskflow/internal/models"
	"taskflow/internal/repositories"
	"taskflow/internal/workflow"
)

type DashboardGroup struct {
	Tasks      []models.Task      `json:"tasks"`
	Milestones []models.Milestone `json:"milestones"`
}

type DashboardCounts struct {
	Total         int `json:"total"`
	Mine          int `json:"mine"`
	PendingReview int `json:"pending_review"`
	Overdue       int `json:"overdue"`
	Completed     int `json:"completed"`
	InProgress    int `json:"in_progress"`
}

type Dashboard struct {
	Today         DashboardGroup  `json:"today"`
	Upcoming      DashboardGroup  `json:"upcoming"`
	Overdue       DashboardGroup  `json:"overdue"`
	PendingReview []models.Task   `json:"pending_review"`
	Completed     []models.Task   `json:"completed"`
	Counts        DashboardCounts `json:"counts"`
}

type DashboardService interface {
	Build(ctx context.Context, actor *models.User) (*Dashboard, error)
}

type dashboardService struct {
	tasks      repositories.TaskRepository
	milestones repositories.MilestoneRepository
	dir        directory
	engine     *workflow.Engine
}

func NewDashboardService(
	tasks repositories.TaskRepository,
	milestones repositories.MilestoneRepository,
	users repositories.UserRepository,
	engine *workflow.Engine,
	log logrus.FieldLogger,
) DashboardService {
	return &dashboardService{
		tasks:      tasks,
		milestones: milestones,
		dir:        directory{users: users, log: log},
		engine:     engine,
	}
}

// Build groups the tasks and milestones visible to actor around today.
// Open tasks fall into today, upcoming (next UpcomingDays days) or overdue.
func (s *dashboardService) Build(ctx context.Context, actor *models.User) (*Dashboard, error) {
	all, err := s.tasks.FindAll(ctx, models.TaskFilter{})
	if err != nil {
		return nil, err
	}
	ms, err := s.milestones.ListForActiveTasks(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.dir.load(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.Task, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}
	tasks := authz.VisibleTasks(snap.hierarchy, all, actor)
	ms = authz.VisibleMilestones(snap.hierarchy, ms, byID, actor)

	today := dayOf(s.engine.Now())
	limit := today.AddDate(0, 0, UpcomingDays)
	d := &Dashboard{}
	for _, t := range tasks {
		due := dayOf(t.FinalDeadline)
		switch t.Status {
		case models.StatusCompleted:
			d.Completed = append(d.Completed, t)
		case models.StatusSubmittedForReview:
			d.PendingReview = append(d.PendingReview, t)
		}
		if t.Status == models.StatusCompleted {
			continue
		}
		switch {
		case due.Equal(today):
			d.Today.Tasks = append(d.Today.Tasks, t)
		case due.After(today) && !due.After(limit):
			d.Upcoming.Tasks = append(d.Upcoming.Tasks, t)
		case due.Before(today):
			d.Overdue.Tasks = append(d.Overdue.Tasks, t)
		}
	}
	for _, m := range ms {
		due := dayOf(m.Deadline)
		switch {
		case due.Equal(today):
			d.Today.Milestones = append(d.Today.Milestones, m)
		case due.After(today) && !due.After(limit):
			d.Upcoming.Milestones = append(d.Upcoming.Milestones, m)
		case due.Before(today) && m.Status != models.MilestoneCompleted:
			d.Overdue.Milestones = append(d.Overdue.Milestones, m)
		}
	}

	c := &d.Counts
	c.Total = len(d.Today.Tasks) + len(d.Upcoming.Tasks) + len(d.Overdue.Tasks)
	c.PendingReview = len(d.PendingReview)
	c.Overdue = len(d.Overdue.Tasks)
	c.Completed = len(d.Completed)
	c.InProgress = max(c.Total-c.Completed-c.PendingReview-c.Overdue, 0)
	for _, t := range all {
		if t.IsAssignedTo(actor.ID) && t.Status != models.StatusSubmittedForReview {
			c.Mine++
		}
	}
	return d, nil
}
