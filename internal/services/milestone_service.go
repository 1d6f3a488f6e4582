package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"taskflow/internal/authz"
	"taskflow/internal/metrics"
	"taskflow/internal/models"
	"taskflow/internal/repositories"
	"taskflow/internal/workflow"
)

type MilestoneInput struct {
	Title       string
	Description *string
	Deadline    time.Time
	Sequence    *int
}

// MilestoneStatusResult reports a status change and its effect on the task.
type MilestoneStatusResult struct {
	Milestone     models.Milestone `json:"milestone"`
	Task          models.Task      `json:"task"`
	TaskCompleted bool             `json:"task_completed"`
}

type MilestoneService interface {
	List(ctx context.Context, actor *models.User, taskID int64) ([]models.Milestone, error)
	Add(ctx context.Context, actor *models.User, taskID int64, in MilestoneInput) (*models.Milestone, error)
	Edit(ctx context.Context, actor *models.User, id int64, in MilestoneInput) (*models.Milestone, error)
	SetStatus(ctx context.Context, actor *models.User, id int64, status models.MilestoneStatus) (*MilestoneStatusResult, error)
	Move(ctx context.Context, actor *models.User, id int64, dir workflow.Direction) ([]models.Milestone, error)
	Delete(ctx context.Context, actor *models.User, id int64) error
}

type milestoneService struct {
	repo   repositories.MilestoneRepository
	tasks  repositories.TaskRepository
	dir    directory
	engine *workflow.Engine
	events EventPublisher
	log    logrus.FieldLogger
}

func NewMilestoneService(
	repo repositories.MilestoneRepository,
	tasks repositories.TaskRepository,
	users repositories.UserRepository,
	engine *workflow.Engine,
	events EventPublisher,
	log logrus.FieldLogger,
) MilestoneService {
	if events == nil {
		events = nopPublisher{}
	}
	return &milestoneService{
		repo:   repo,
		tasks:  tasks,
		dir:    directory{users: users, log: log},
		engine: engine,
		events: events,
		log:    log,
	}
}

func (s *milestoneService) List(ctx context.Context, actor *models.User, taskID int64) ([]models.Milestone, error) {
	task, snap, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Archived || !canOpen(snap.hierarchy, actor, task) {
		return nil, denied("task %d is not visible to you", taskID)
	}
	return s.repo.ListByTask(ctx, taskID)
}

func (s *milestoneService) Add(ctx context.Context, actor *models.User, taskID int64, in MilestoneInput) (*models.Milestone, error) {
	if err := normalizeMilestoneInput(&in); err != nil {
		return nil, err
	}
	task, snap, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !authz.CanEdit(snap.hierarchy, actor, task) {
		return nil, denied("you cannot add milestones to task %d", taskID)
	}
	existing, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	m, err := s.engine.AddMilestone(task, existing, workflow.NewMilestone{
		Title:       in.Title,
		Deadline:    in.Deadline,
		Description: in.Description,
		Sequence:    in.Sequence,
	})
	if err != nil {
		return nil, fromEngine(err)
	}
	if in.Sequence != nil && workflow.SequenceTaken(existing, *in.Sequence) {
		s.log.WithFields(logrus.Fields{"task_id": taskID, "sequence": *in.Sequence}).
			Warn("[milestone][add] sequence already used on this task")
	}
	if err := s.repo.Store(ctx, &m); err != nil {
		return nil, fmt.Errorf("store milestone: %w", err)
	}
	return &m, nil
}

func (s *milestoneService) Edit(ctx context.Context, actor *models.User, id int64, in MilestoneInput) (*models.Milestone, error) {
	if err := normalizeMilestoneInput(&in); err != nil {
		return nil, err
	}
	m, _, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	workflow.EditMilestone(m, in.Title, in.Deadline)
	m.Description = in.Description
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fromRepo(err)
	}
	return m, nil
}

// SetStatus changes a milestone's status; completing the last open milestone
// completes the task in the same transaction.
func (s *milestoneService) SetStatus(ctx context.Context, actor *models.User, id int64, status models.MilestoneStatus) (*MilestoneStatusResult, error) {
	if status != models.MilestonePending && status != models.MilestoneCompleted {
		return nil, invalid("unknown milestone status %q", status)
	}
	m, task, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.repo.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	idx := workflow.IndexOf(siblings, m.ID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: milestone %d", ErrNotFound, id)
	}

	wasCompleted := task.Status == models.StatusCompleted
	changed := s.engine.SetMilestoneStatus(task, siblings, idx, status)
	var save *models.Task
	if changed {
		save = task
	}
	if err := s.repo.SaveStatus(ctx, &siblings[idx], save); err != nil {
		return nil, fromRepo(err)
	}

	completed := changed && !wasCompleted
	if completed {
		metrics.RecordAutoCompletion()
		snap, err := s.dir.load(ctx)
		if err == nil {
			s.events.Publish(ctx, taskEvent(EventTaskCompleted, task, actor, snap.hierarchy))
		}
		s.log.WithField("task_id", task.ID).Info("[milestone][status] all milestones done, task completed")
	}
	return &MilestoneStatusResult{Milestone: siblings[idx], Task: *task, TaskCompleted: completed}, nil
}

// Move swaps the milestone with its neighbour one sequence up or down and
// returns the task's milestones in order. Without such a neighbour nothing changes.
func (s *milestoneService) Move(ctx context.Context, actor *models.User, id int64, dir workflow.Direction) ([]models.Milestone, error) {
	if dir != workflow.Up && dir != workflow.Down {
		return nil, invalid("direction must be %q or %q", workflow.Up, workflow.Down)
	}
	m, task, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.repo.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	idx := workflow.IndexOf(siblings, m.ID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: milestone %d", ErrNotFound, id)
	}
	if other, ok := workflow.MoveMilestone(siblings, idx, dir); ok {
		if err := s.repo.SwapSequence(ctx, &siblings[idx], &siblings[other]); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(siblings, func(i, j int) bool { return siblings[i].Sequence < siblings[j].Sequence })
	return siblings, nil
}

func (s *milestoneService) Delete(ctx context.Context, actor *models.User, id int64) error {
	if _, _, err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	return fromRepo(s.repo.Delete(ctx, id))
}

func (s *milestoneService) loadTask(ctx context.Context, taskID int64) (*models.Task, *snapshot, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, nil, fromRepo(err)
	}
	snap, err := s.dir.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return task, snap, nil
}

// authorize loads a milestone with its task and checks that actor may manage it.
func (s *milestoneService) authorize(ctx context.Context, actor *models.User, id int64) (*models.Milestone, *models.Task, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, fromRepo(err)
	}
	task, snap, err := s.loadTask(ctx, m.TaskID)
	if err != nil {
		return nil, nil, err
	}
	if !authz.CanManageMilestones(snap.hierarchy, actor, task) {
		return nil, nil, denied("you cannot change milestones of task %d", task.ID)
	}
	return m, task, nil
}

func normalizeMilestoneInput(in *MilestoneInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return invalid("milestone title is required")
	}
	if in.Deadline.IsZero() {
		return invalid("milestone deadline is required")
	}
	if in.Sequence != nil && *in.Sequence < 1 {
		return invalid("sequence must be positive")
	}
	in.Description = trimOptional(in.Description)
	return nil
}
