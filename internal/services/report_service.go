package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"taskflow/internal/authz"
	"taskflow/internal/config"
	"taskflow/internal/models"
	"taskflow/internal/repositories"
	"taskflow/internal/workflow"
)

// Row kinds of a report.
const (
	RowTask      = "task"
	RowMilestone = "milestone"
	RowQuickLog  = "quick_log"
)

var reportHeaders = map[string]string{
	"id":                 "Task ID",
	"title":              "Title",
	"status":             "Status",
	"priority":           "Priority",
	"assigned_to":        "Assigned To",
	"deadline":           "Final Deadline",
	"folder":             "Folder",
	"milestone":          "Milestone",
	"milestone_status":   "Milestone Status",
	"milestone_deadline": "Milestone Deadline",
}

var milestoneColumns = map[string]bool{
	"milestone":          true,
	"milestone_status":   true,
	"milestone_deadline": true,
}

type ReportQuery struct {
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	TypeID       *int64
	AssignedToID *int64
	From         *time.Time
	To           *time.Time
	Columns      []string
	Page         int
}

type ReportRow struct {
	Kind   string   `json:"kind"`
	TaskID int64    `json:"task_id,omitempty"`
	Cells  []string `json:"cells"`
}

// Report is a rendered table. On screen it holds one page of items, where a
// task item is its own row plus one row per milestone.
type Report struct {
	Title       string      `json:"title"`
	Columns     []string    `json:"columns"`
	Headers     []string    `json:"headers"`
	Rows        []ReportRow `json:"rows"`
	Total       int         `json:"total"`
	Page        int         `json:"page"`
	Pages       int         `json:"pages"`
	GeneratedAt time.Time   `json:"generated_at"`
	Filters     string      `json:"filters"`
}

type ReportService interface {
	Screen(ctx context.Context, actor *models.User, q ReportQuery) (*Report, error)
	// Export builds every row; it needs admin or the reports.export privilege.
	Export(ctx context.Context, actor *models.User, q ReportQuery) (*Report, error)
}

type reportService struct {
	tasks      repositories.TaskRepository
	milestones repositories.MilestoneRepository
	quick      repositories.QuickTaskRepository
	settings   SettingsService
	dir        directory
	engine     *workflow.Engine
	cfg        config.ReportsConfig
}

func NewReportService(
	tasks repositories.TaskRepository,
	milestones repositories.MilestoneRepository,
	quick repositories.QuickTaskRepository,
	users repositories.UserRepository,
	settings SettingsService,
	engine *workflow.Engine,
	cfg config.ReportsConfig,
	log logrus.FieldLogger,
) ReportService {
	return &reportService{
		tasks:      tasks,
		milestones: milestones,
		quick:      quick,
		settings:   settings,
		dir:        directory{users: users, log: log},
		engine:     engine,
		cfg:        cfg,
	}
}

type reportItem struct {
	task  *models.Task
	quick *models.QuickTask
	due   time.Time
}

func (s *reportService) Screen(ctx context.Context, actor *models.User, q ReportQuery) (*Report, error) {
	return s.build(ctx, actor, q, true)
}

func (s *reportService) Export(ctx context.Context, actor *models.User, q ReportQuery) (*Report, error) {
	if !authz.HasPrivilege(actor, models.PrivilegeExportReports) {
		return nil, denied("exporting reports needs the %s privilege", models.PrivilegeExportReports)
	}
	return s.build(ctx, actor, q, false)
}

func (s *reportService) build(ctx context.Context, actor *models.User, q ReportQuery, paginate bool) (*Report, error) {
	columns, err := s.columns(ctx, q.Columns)
	if err != nil {
		return nil, err
	}
	items, snap, err := s.items(ctx, actor, q)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Title:       s.cfg.Title,
		Columns:     columns,
		Total:       len(items),
		Page:        1,
		Pages:       1,
		GeneratedAt: s.engine.Now(),
		Filters:     describeFilters(q),
	}
	for _, c := range columns {
		rep.Headers = append(rep.Headers, reportHeaders[c])
	}
	if paginate {
		size := s.cfg.PageSize
		if size < 1 {
			size = 10
		}
		if len(items) > 0 {
			rep.Pages = (len(items) + size - 1) / size
		}
		rep.Page = q.Page
		if rep.Page < 1 {
			rep.Page = 1
		}
		start := min((rep.Page-1)*size, len(items))
		items = items[start:min(start+size, len(items))]
	}

	withMilestones := false
	for _, c := range columns {
		withMilestones = withMilestones || milestoneColumns[c]
	}
	var byTask map[int64][]models.Milestone
	if withMilestones {
		if byTask, err = s.milestonesOf(ctx, items); err != nil {
			return nil, err
		}
	}
	for _, it := range items {
		if it.quick != nil {
			rep.Rows = append(rep.Rows, quickLogRow(columns, it.quick, snap))
			continue
		}
		ms := byTask[it.task.ID]
		rep.Rows = append(rep.Rows, taskRow(columns, it.task, snap, len(ms) > 0))
		for i := range ms {
			rep.Rows = append(rep.Rows, milestoneRow(columns, &ms[i]))
		}
	}
	return rep, nil
}

// milestonesOf loads the milestones of the listed tasks grouped by task,
// each group in sequence order.
func (s *reportService) milestonesOf(ctx context.Context, items []reportItem) (map[int64][]models.Milestone, error) {
	var ids []int64
	for _, it := range items {
		if it.task != nil {
			ids = append(ids, it.task.ID)
		}
	}
	ms, err := s.milestones.ListByTasks(ctx, ids)
	if err != nil {
		return nil, err
	}
	byTask := make(map[int64][]models.Milestone, len(ids))
	for _, m := range ms {
		byTask[m.TaskID] = append(byTask[m.TaskID], m)
	}
	return byTask, nil
}

func (s *reportService) columns(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) == 0 {
		st, err := s.settings.Get(ctx)
		if err != nil {
			return nil, err
		}
		return st.ReportColumns, nil
	}
	for _, c := range requested {
		if !config.IsReportColumn(c) {
			return nil, invalid("unknown report column %q", c)
		}
	}
	return requested, nil
}

// items collects the visible tasks and quick logs, ordered by deadline.
// Quick logs count as completed tasks of normal priority without a type, so
// they drop out under any other status, a priority or a type filter.
func (s *reportService) items(ctx context.Context, actor *models.User, q ReportQuery) ([]reportItem, *snapshot, error) {
	tasks, err := s.tasks.FindAll(ctx, models.TaskFilter{
		Status:       q.Status,
		Priority:     q.Priority,
		TypeID:       q.TypeID,
		AssignedToID: q.AssignedToID,
		DeadlineFrom: q.From,
		DeadlineTo:   q.To,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("report tasks: %w", err)
	}
	snap, err := s.dir.load(ctx)
	if err != nil {
		return nil, nil, err
	}
	tasks = authz.VisibleTasks(snap.hierarchy, tasks, actor)

	items := make([]reportItem, 0, len(tasks))
	for i := range tasks {
		items = append(items, reportItem{task: &tasks[i], due: tasks[i].FinalDeadline})
	}

	skipQuick := (q.Status != nil && *q.Status != models.StatusCompleted) || q.Priority != nil || q.TypeID != nil
	if !skipQuick {
		filter := repositories.QuickTaskFilter{CreatedByID: q.AssignedToID, From: q.From, To: q.To}
		if !actor.IsAdmin() {
			if q.AssignedToID != nil && *q.AssignedToID != actor.ID {
				skipQuick = true
			}
			filter.CreatedByID = &actor.ID
		}
		if !skipQuick {
			logs, err := s.quick.List(ctx, filter)
			if err != nil {
				return nil, nil, fmt.Errorf("report quick logs: %w", err)
			}
			for i := range logs {
				items = append(items, reportItem{quick: &logs[i], due: logs[i].CompletedOn})
			}
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].due.Before(items[j].due) })
	return items, snap, nil
}

func formatDay(t time.Time) string {
	return t.Format("2006-01-02")
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func pick(columns []string, values map[string]string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = values[c]
	}
	return out
}

// taskRow leaves the milestone cells blank when milestone rows follow, and
// fills them with "-" otherwise.
func taskRow(columns []string, t *models.Task, snap *snapshot, milestonesFollow bool) ReportRow {
	ms := "-"
	if milestonesFollow {
		ms = ""
	}
	return ReportRow{Kind: RowTask, TaskID: t.ID, Cells: pick(columns, map[string]string{
		"id":                 strconv.FormatInt(t.ID, 10),
		"title":              t.Title,
		"status":             string(t.Status),
		"priority":           string(t.Priority),
		"assigned_to":        snap.username(t.AssignedToID),
		"deadline":           formatDay(t.FinalDeadline),
		"folder":             orDash(t.FolderLink),
		"milestone":          ms,
		"milestone_status":   ms,
		"milestone_deadline": ms,
	})}
}

func milestoneRow(columns []string, m *models.Milestone) ReportRow {
	return ReportRow{Kind: RowMilestone, TaskID: m.TaskID, Cells: pick(columns, map[string]string{
		"milestone":          m.Title,
		"milestone_status":   string(m.Status),
		"milestone_deadline": formatDay(m.Deadline),
	})}
}

func quickLogRow(columns []string, q *models.QuickTask, snap *snapshot) ReportRow {
	return ReportRow{Kind: RowQuickLog, Cells: pick(columns, map[string]string{
		"id":                 fmt.Sprintf("Q-%d", q.ID),
		"title":              q.Title,
		"status":             string(models.StatusCompleted),
		"priority":           string(models.PriorityNormal),
		"assigned_to":        snap.username(&q.CreatedByID),
		"deadline":           formatDay(q.CompletedOn),
		"folder":             "-",
		"milestone":          "-",
		"milestone_status":   "-",
		"milestone_deadline": "-",
	})}
}

func describeFilters(q ReportQuery) string {
	from, to, status := "-", "-", "All"
	if q.From != nil {
		from = formatDay(*q.From)
	}
	if q.To != nil {
		to = formatDay(*q.To)
	}
	if q.Status != nil {
		status = string(*q.Status)
	}
	parts := []string{"From " + from, "To " + to, "Status " + status}
	if q.Priority != nil {
		parts = append(parts, "Priority "+string(*q.Priority))
	}
	return strings.Join(parts, " | ")
}
