package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"taskflow/internal/authz"
	"taskflow/internal/metrics"
	"taskflow/internal/models"
	"taskflow/internal/repositories"
	"taskflow/internal/workflow"
)

// Deadline windows accepted by TaskService.List.
const (
	WindowToday    = "today"
	WindowUpcoming = "upcoming"
	WindowOverdue  = "overdue"
)

// UpcomingDays is how far ahead the upcoming window reaches.
const UpcomingDays = 7

// TaskInput holds the editable fields of a task.
type TaskInput struct {
	Title         string
	Description   *string
	Priority      models.TaskPriority
	TypeID        int64
	AssignedToID  *int64
	StartDate     *time.Time
	FinalDeadline time.Time
	FolderLink    *string
}

type TaskListQuery struct {
	Filter models.TaskFilter
	Window string
}

type TaskService interface {
	Create(ctx context.Context, actor *models.User, in TaskInput) (*models.Task, error)
	Get(ctx context.Context, actor *models.User, id int64) (*models.Task, error)
	List(ctx context.Context, actor *models.User, q TaskListQuery) ([]models.Task, error)
	Update(ctx context.Context, actor *models.User, id int64, in TaskInput) (*models.Task, error)
	Archive(ctx context.Context, actor *models.User, id int64) error

	Submit(ctx context.Context, actor *models.User, id int64, remarks *string) (*models.Task, error)
	Approve(ctx context.Context, actor *models.User, id int64) (*models.Task, error)
	Return(ctx context.Context, actor *models.User, id int64) (*models.Task, error)
	Complete(ctx context.Context, actor *models.User, id int64, remarks *string) (*models.Task, error)
}

type taskService struct {
	repo   repositories.TaskRepository
	types  repositories.TaskTypeRepository
	dir    directory
	engine *workflow.Engine
	events EventPublisher
	log    logrus.FieldLogger
}

func NewTaskService(
	repo repositories.TaskRepository,
	types repositories.TaskTypeRepository,
	users repositories.UserRepository,
	engine *workflow.Engine,
	events EventPublisher,
	log logrus.FieldLogger,
) TaskService {
	if events == nil {
		events = nopPublisher{}
	}
	return &taskService{
		repo:   repo,
		types:  types,
		dir:    directory{users: users, log: log},
		engine: engine,
		events: events,
		log:    log,
	}
}

// canOpen decides whether actor may open a single task. Beyond what listings
// show, anybody who may manage the task's milestones may open it.
func canOpen(h *authz.Hierarchy, actor *models.User, t *models.Task) bool {
	return authz.CanView(h, actor, t) || authz.CanManageMilestones(h, actor, t)
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *taskService) Create(ctx context.Context, actor *models.User, in TaskInput) (*models.Task, error) {
	if err := normalizeTaskInput(&in); err != nil {
		return nil, err
	}
	snap, err := s.dir.load(ctx)
	if err != nil {
		return nil, err
	}
	assigneeID := actor.ID
	if in.AssignedToID != nil {
		assigneeID = *in.AssignedToID
	}
	if err := s.checkAssignee(snap, actor, assigneeID); err != nil {
		return nil, err
	}
	if err := s.checkType(ctx, actor, in.TypeID); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:         in.Title,
		Description:   in.Description,
		Status:        models.StatusToDo,
		Priority:      in.Priority,
		TypeID:        in.TypeID,
		AssignedToID:  &assigneeID,
		StartDate:     in.StartDate,
		FinalDeadline: in.FinalDeadline,
		FolderLink:    in.FolderLink,
		CreatedAt:     s.engine.Now(),
	}
	if err := s.repo.Store(ctx, task); err != nil {
		return nil, fmt.Errorf("store task: %w", err)
	}
	return task, nil
}

func (s *taskService) Get(ctx context.Context, actor *models.User, id int64) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	if task.Archived {
		return nil, fmt.Errorf("%w: task %d is archived", ErrNotFound, id)
	}
	snap, err := s.dir.load(ctx)
	if err != nil {
		return nil, err
	}
	if !canOpen(snap.hierarchy, actor, task) {
		return nil, denied("task %d is not visible to you", id)
	}
	return task, nil
}

// List returns the tasks visible to actor, earliest deadline first.
func (s *taskService) List(ctx context.Context, actor *models.User, q TaskListQuery) ([]models.Task, error) {
	filter := q.Filter
	today := dayOf(s.engine.Now())
	switch q.Window {
	case "":
	case WindowToday:
		filter.DeadlineFrom, filter.DeadlineTo = &today, &today
	case WindowUpcoming:
		from, to := today.AddDate(0, 0, 1), today.AddDate(0, 0, UpcomingDays)
		filter.DeadlineFrom, filter.DeadlineTo = &from, &to
	case WindowOverdue:
		to := today.AddDate(0, 0, -1)
		filter.DeadlineFrom, filter.DeadlineTo = nil, &to
	default:
		return nil, invalid("unknown filter %q", q.Window)
	}

	tasks, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if q.Window == WindowOverdue {
		open := tasks[:0]
		for _, t := range tasks {
			if t.Status != models.StatusCompleted {
				open = append(open, t)
			}
		}
		tasks = open
	}
	snap, err := s.dir.load(ctx)
	if err != nil {
		return nil, err
	}
	return authz.VisibleTasks(snap.hierarchy, tasks, actor), nil
}

func (s *taskService) Update(ctx context.Context, actor *models.User, id int64, in TaskInput) (*models.Task, error) {
	if err := normalizeTaskInput(&in); err != nil {
		return nil, err
	}
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	snap, err := s.dir.load(ctx)
	if err != nil {
		return nil, err
	}
	if !authz.CanEdit(snap.hierarchy, actor, task) {
		return nil, denied("you cannot edit task %d", id)
	}
	if in.AssignedToID != nil && !task.IsAssignedTo(*in.AssignedToID) {
		if err := s.checkAssignee(snap, actor, *in.AssignedToID); err != nil {
			return nil, err
		}
		task.AssignedToID = in.AssignedToID
	}
	if in.TypeID != task.TypeID {
		if err := s.checkType(ctx, actor, in.TypeID); err != nil {
			return nil, err
		}
		task.TypeID = in.TypeID
	}
	task.Title = in.Title
	task.Description = in.Description
	task.Priority = in.Priority
	task.StartDate = in.StartDate
	task.FinalDeadline = in.FinalDeadline
	task.FolderLink = in.FolderLink

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, fromRepo(err)
	}
	return task, nil
}

func (s *taskService) Archive(ctx context.Context, actor *models.User, id int64) error {
	if !actor.IsAdmin() {
		return denied("only admins archive tasks")
	}
	return fromRepo(s.repo.Archive(ctx, id))
}

func (s *taskService) Submit(ctx context.Context, actor *models.User, id int64, remarks *string) (*models.Task, error) {
	return s.transition(ctx, actor, id, "submit", EventTaskSubmitted,
		func(_ *authz.Hierarchy, t *models.Task) bool { return authz.CanSubmit(actor, t) },
		func(t *models.Task) error { return s.engine.Submit(t, remarks) },
	)
}

func (s *taskService) Approve(ctx context.Context, actor *models.User, id int64) (*models.Task, error) {
	return s.transition(ctx, actor, id, "approve", EventTaskApproved,
		func(h *authz.Hierarchy, t *models.Task) bool { return authz.CanReview(h, actor, t) },
		s.engine.Approve,
	)
}

func (s *taskService) Return(ctx context.Context, actor *models.User, id int64) (*models.Task, error) {
	return s.transition(ctx, actor, id, "return", EventTaskReturned,
		func(h *authz.Hierarchy, t *models.Task) bool { return authz.CanReview(h, actor, t) },
		s.engine.Return,
	)
}

func (s *taskService) Complete(ctx context.Context, actor *models.User, id int64, remarks *string) (*models.Task, error) {
	return s.transition(ctx, actor, id, "complete", EventTaskCompleted,
		func(_ *authz.Hierarchy, t *models.Task) bool { return authz.CanComplete(actor, t) },
		func(t *models.Task) error { return s.engine.Complete(t, remarks) },
	)
}

// transition loads the task, checks the guard, applies the engine step and
// saves the new state. Archived tasks never move.
func (s *taskService) transition(
	ctx context.Context,
	actor *models.User,
	id int64,
	name, kind string,
	guard func(h *authz.Hierarchy, t *models.Task) bool,
	apply func(t *models.Task) error,
) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err)
	}
	snap, err := s.dir.load(ctx)
	if err != nil {
		return nil, err
	}
	if task.Archived || !guard(snap.hierarchy, task) {
		metrics.RecordTransition(name, metrics.OutcomeDenied)
		return nil, denied("you cannot %s task %d in status %q", name, id, task.Status)
	}
	if err := apply(task); err != nil {
		metrics.RecordTransition(name, metrics.OutcomeInvalid)
		return nil, fromEngine(err)
	}
	if err := s.repo.SaveState(ctx, task); err != nil {
		return nil, fromRepo(err)
	}
	metrics.RecordTransition(name, metrics.OutcomeOK)
	s.events.Publish(ctx, taskEvent(kind, task, actor, snap.hierarchy))
	return task, nil
}

// taskEvent addresses submissions to the assignee's manager and every other
// change to the assignee. The actor is never notified of their own action.
func taskEvent(kind string, t *models.Task, actor *models.User, h *authz.Hierarchy) models.TaskEvent {
	ev := models.TaskEvent{Kind: kind, TaskID: t.ID, Title: t.Title, Status: t.Status, ActorID: actor.ID}
	if t.AssignedToID == nil {
		return ev
	}
	target := *t.AssignedToID
	if kind == EventTaskSubmitted {
		mgr, ok := h.ManagerOf(target)
		if !ok {
			return ev
		}
		target = mgr
	}
	if target != actor.ID {
		ev.Audience = []int64{target}
	}
	return ev
}

func (s *taskService) checkAssignee(snap *snapshot, actor *models.User, assigneeID int64) error {
	assignee := snap.user(assigneeID)
	if assignee == nil {
		return invalid("assignee %d does not exist", assigneeID)
	}
	if !assignee.IsActive {
		return invalid("assignee %s is not active", assignee.Username)
	}
	if !authz.CanAssign(snap.hierarchy, actor, assignee) {
		return denied("you cannot assign tasks to %s", assignee.Username)
	}
	return nil
}

// checkType requires an existing type; non-admins may only use active types
// of their own department.
func (s *taskService) checkType(ctx context.Context, actor *models.User, typeID int64) error {
	tt, err := s.types.GetByID(ctx, typeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return invalid("task type %d does not exist", typeID)
		}
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	if !tt.IsActive || tt.Department != actor.Department {
		return invalid("task type %q is not available to your department", tt.Name)
	}
	return nil
}

func normalizeTaskInput(in *TaskInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return invalid("title is required")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityNormal
	}
	if !in.Priority.Valid() {
		return invalid("unknown priority %q", in.Priority)
	}
	if in.TypeID == 0 {
		return invalid("task type is required")
	}
	if in.FinalDeadline.IsZero() {
		return invalid("final deadline is required")
	}
	if in.StartDate != nil && in.StartDate.After(in.FinalDeadline) {
		return invalid("start date is after the final deadline")
	}
	in.Description = trimOptional(in.Description)
	in.FolderLink = trimOptional(in.FolderLink)
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
