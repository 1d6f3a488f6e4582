package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"taskflow/internal/logger"
	"taskflow/internal/models"
	"taskflow/internal/repositories"
	"taskflow/internal/workflow"
)

var fixedNow = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func testEngine() *workflow.Engine {
	return workflow.NewEngine(func() time.Time { return fixedNow })
}

func testLog() logrus.FieldLogger { return logger.Discard() }

func missing(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, repositories.ErrNotFound)
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]*models.User
	next  int64
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{users: map[int64]*models.User{}}
	for i := range users {
		u := users[i]
		f.users[u.ID] = &u
		if u.ID > f.next {
			f.next = u.ID
		}
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	u.ID = f.next
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, missing("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, name string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", name, repositories.ErrNotFound)
}

func (f *fakeUsers) ListAll(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) UpdateManager(_ context.Context, id int64, managerID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return missing("user", id)
	}
	u.ManagerID = managerID
	return nil
}

func (f *fakeUsers) SetActive(_ context.Context, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return missing("user", id)
	}
	u.IsActive = active
	return nil
}

func (f *fakeUsers) SetPrivileges(_ context.Context, id int64, codes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return missing("user", id)
	}
	u.Privileges = codes
	return nil
}

type fakeTasks struct {
	mu    sync.Mutex
	tasks map[int64]*models.Task
	next  int64
	saves int
}

func newFakeTasks(tasks ...models.Task) *fakeTasks {
	f := &fakeTasks{tasks: map[int64]*models.Task{}}
	for i := range tasks {
		t := tasks[i]
		f.tasks[t.ID] = &t
		if t.ID > f.next {
			f.next = t.ID
		}
	}
	return f
}

func (f *fakeTasks) Store(_ context.Context, t *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	t.ID = f.next
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeTasks) FindByID(_ context.Context, id int64) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil, missing("task", id)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTasks) FindAll(_ context.Context, filter models.TaskFilter) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Task
	for _, t := range f.tasks {
		switch {
		case t.Archived:
		case filter.Status != nil && t.Status != *filter.Status:
		case filter.Priority != nil && t.Priority != *filter.Priority:
		case filter.TypeID != nil && t.TypeID != *filter.TypeID:
		case filter.AssignedToID != nil && !t.IsAssignedTo(*filter.AssignedToID):
		case filter.DeadlineFrom != nil && t.FinalDeadline.Before(*filter.DeadlineFrom):
		case filter.DeadlineTo != nil && t.FinalDeadline.After(*filter.DeadlineTo):
		default:
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FinalDeadline.Equal(out[j].FinalDeadline) {
			return out[i].FinalDeadline.Before(out[j].FinalDeadline)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeTasks) Update(_ context.Context, t *models.Task) error {
	return f.put(t)
}

func (f *fakeTasks) SaveState(_ context.Context, t *models.Task) error {
	f.mu.Lock()
	f.saves++
	f.mu.Unlock()
	return f.put(t)
}

func (f *fakeTasks) Archive(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return missing("task", id)
	}
	t.Archived = true
	return nil
}

func (f *fakeTasks) put(t *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[t.ID]; !ok {
		return missing("task", t.ID)
	}
	cp := *t
	f.tasks[t.ID] = &cp
	return nil
}

func (f *fakeTasks) get(id int64) models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.tasks[id]
}

type fakeMilestones struct {
	mu    sync.Mutex
	ms    map[int64]*models.Milestone
	tasks *fakeTasks
	next  int64

	// query counters
	perTask int
	batched int
}

func newFakeMilestones(tasks *fakeTasks, ms ...models.Milestone) *fakeMilestones {
	f := &fakeMilestones{ms: map[int64]*models.Milestone{}, tasks: tasks}
	for i := range ms {
		m := ms[i]
		f.ms[m.ID] = &m
		if m.ID > f.next {
			f.next = m.ID
		}
	}
	return f
}

func (f *fakeMilestones) Store(_ context.Context, m *models.Milestone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	m.ID = f.next
	cp := *m
	f.ms[m.ID] = &cp
	return nil
}

func (f *fakeMilestones) FindByID(_ context.Context, id int64) (*models.Milestone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.ms[id]
	if !ok {
		return nil, missing("milestone", id)
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMilestones) ListByTask(_ context.Context, taskID int64) ([]models.Milestone, error) {
	f.mu.Lock()
	f.perTask++
	f.mu.Unlock()
	return f.list(func(m *models.Milestone) bool { return m.TaskID == taskID }), nil
}

func (f *fakeMilestones) ListByTasks(_ context.Context, taskIDs []int64) ([]models.Milestone, error) {
	f.mu.Lock()
	f.batched++
	f.mu.Unlock()
	want := map[int64]bool{}
	for _, id := range taskIDs {
		want[id] = true
	}
	return f.list(func(m *models.Milestone) bool { return want[m.TaskID] }), nil
}

func (f *fakeMilestones) ListForActiveTasks(context.Context) ([]models.Milestone, error) {
	return f.list(func(m *models.Milestone) bool {
		t, ok := f.tasks.tasks[m.TaskID]
		return ok && !t.Archived
	}), nil
}

func (f *fakeMilestones) list(keep func(*models.Milestone) bool) []models.Milestone {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Milestone
	for _, m := range f.ms {
		if keep(m) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeMilestones) Update(_ context.Context, m *models.Milestone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.ms[m.ID]
	if !ok {
		return missing("milestone", m.ID)
	}
	cur.Title, cur.Description, cur.Deadline = m.Title, m.Description, m.Deadline
	return nil
}

func (f *fakeMilestones) SaveStatus(ctx context.Context, m *models.Milestone, task *models.Task) error {
	f.mu.Lock()
	cur, ok := f.ms[m.ID]
	if ok {
		cur.Status = m.Status
	}
	f.mu.Unlock()
	if !ok {
		return missing("milestone", m.ID)
	}
	if task != nil {
		return f.tasks.SaveState(ctx, task)
	}
	return nil
}

func (f *fakeMilestones) SwapSequence(_ context.Context, a, b *models.Milestone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ms[a.ID].Sequence = a.Sequence
	f.ms[b.ID].Sequence = b.Sequence
	return nil
}

func (f *fakeMilestones) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ms[id]; !ok {
		return missing("milestone", id)
	}
	delete(f.ms, id)
	return nil
}

type fakeTypes struct {
	types map[int64]*models.TaskType
	next  int64
}

func newFakeTypes(types ...models.TaskType) *fakeTypes {
	f := &fakeTypes{types: map[int64]*models.TaskType{}}
	for i := range types {
		tt := types[i]
		f.types[tt.ID] = &tt
		if tt.ID > f.next {
			f.next = tt.ID
		}
	}
	return f
}

func (f *fakeTypes) Create(_ context.Context, tt *models.TaskType) error {
	f.next++
	tt.ID = f.next
	cp := *tt
	f.types[tt.ID] = &cp
	return nil
}

func (f *fakeTypes) GetByID(_ context.Context, id int64) (*models.TaskType, error) {
	tt, ok := f.types[id]
	if !ok {
		return nil, missing("task type", id)
	}
	cp := *tt
	return &cp, nil
}

func (f *fakeTypes) List(_ context.Context, department string, activeOnly bool) ([]models.TaskType, error) {
	var out []models.TaskType
	for _, tt := range f.types {
		if (department == "" || tt.Department == department) && (!activeOnly || tt.IsActive) {
			out = append(out, *tt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTypes) SetActive(_ context.Context, id int64, active bool) error {
	tt, ok := f.types[id]
	if !ok {
		return missing("task type", id)
	}
	tt.IsActive = active
	return nil
}

type fakeQuick struct {
	logs []models.QuickTask
}

func (f *fakeQuick) Store(_ context.Context, q *models.QuickTask) error {
	q.ID = int64(len(f.logs) + 1)
	f.logs = append(f.logs, *q)
	return nil
}

func (f *fakeQuick) List(_ context.Context, filter repositories.QuickTaskFilter) ([]models.QuickTask, error) {
	var out []models.QuickTask
	for _, q := range f.logs {
		switch {
		case filter.CreatedByID != nil && q.CreatedByID != *filter.CreatedByID:
		case filter.From != nil && q.CompletedOn.Before(*filter.From):
		case filter.To != nil && q.CompletedOn.After(*filter.To):
		default:
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeSettings struct {
	rows map[string]string
}

func (f *fakeSettings) GetAll(context.Context) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range f.rows {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSettings) Upsert(_ context.Context, values map[string]string) error {
	if f.rows == nil {
		f.rows = map[string]string{}
	}
	for k, v := range values {
		f.rows[k] = v
	}
	return nil
}

type recordingPublisher struct {
	events []models.TaskEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev models.TaskEvent) {
	r.events = append(r.events, ev)
}

// orgUsers is a small organisation:
//
//	1 admin
//	2 head (dept ops) ── 3 lead ── 4 staff
//	5 peer (dept ops, no manager)
//	6 inactive, reports to 2
func orgUsers() []models.User {
	return []models.User{
		{ID: 1, Username: "admin", Role: models.RoleAdmin, Department: "ops", IsActive: true, Email: "admin@example.com"},
		{ID: 2, Username: "head", Role: models.RoleDepartmentHead, Department: "ops", IsActive: true, Email: "head@example.com"},
		{ID: 3, Username: "lead", Role: models.RoleStaff, Department: "ops", ManagerID: ptr(int64(2)), IsActive: true},
		{ID: 4, Username: "staff", Role: models.RoleStaff, Department: "ops", ManagerID: ptr(int64(3)), IsActive: true, Email: "staff@example.com", TelegramChatID: 4004},
		{ID: 5, Username: "peer", Role: models.RoleStaff, Department: "ops", IsActive: true},
		{ID: 6, Username: "gone", Role: models.RoleStaff, Department: "ops", ManagerID: ptr(int64(2)), IsActive: false},
	}
}

func actor(users *fakeUsers, id int64) *models.User {
	u, err := users.GetByID(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return u
}
