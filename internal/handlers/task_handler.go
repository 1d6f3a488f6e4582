package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/models"
	"taskflow/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	log     logrus.FieldLogger
}

func NewTaskHandler(service services.TaskService, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{service: service, log: log}
}

type taskRequest struct {
	Title         string              `json:"title" binding:"required"`
	Description   *string             `json:"description"`
	Priority      models.TaskPriority `json:"priority"` // Low|Normal|High|Urgent
	TypeID        int64               `json:"type_id" binding:"required"`
	AssignedToID  *int64              `json:"assigned_to_id"`
	StartDate     string              `json:"start_date"`                        // 2006-01-02
	FinalDeadline string              `json:"final_deadline" binding:"required"` // 2006-01-02
	FolderLink    *string             `json:"folder_link"`
}

func (r taskRequest) input() (services.TaskInput, error) {
	in := services.TaskInput{
		Title:        r.Title,
		Description:  r.Description,
		Priority:     r.Priority,
		TypeID:       r.TypeID,
		AssignedToID: r.AssignedToID,
		FolderLink:   r.FolderLink,
	}
	start, err := parseDate(r.StartDate)
	if err != nil {
		return in, err
	}
	in.StartDate = start
	deadline, err := parseDate(r.FinalDeadline)
	if err != nil {
		return in, err
	}
	if deadline != nil {
		in.FinalDeadline = *deadline
	}
	return in, nil
}

type remarksRequest struct {
	Remarks *string `json:"remarks"`
}

func (h *TaskHandler) bindTask(c *gin.Context, tag string) (services.TaskInput, bool) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Infof("%s[bind][err] %v", tag, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return services.TaskInput{}, false
	}
	in, err := req.input()
	if err != nil {
		h.log.Infof("%s[err] bad date: %v", tag, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be YYYY-MM-DD"})
		return in, false
	}
	return in, true
}

// @Summary   Create task
// @Tags      Tasks
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     task  body      taskRequest  true  "Task; assignee defaults to the caller"
// @Success   201   {object}  models.Task
// @Failure   400   {object}  map[string]string
// @Failure   403   {object}  map[string]string
// @Router    /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	actor := currentUser(c)
	in, ok := h.bindTask(c, "[task][create]")
	if !ok {
		return
	}
	task, err := h.service.Create(c.Request.Context(), actor, in)
	if err != nil {
		fail(c, h.log, "[task][create]", err)
		return
	}
	h.log.Infof("[task][create][ok] id=%d by=%d assignee=%v", task.ID, actor.ID, task.AssignedToID)
	c.JSON(http.StatusCreated, task)
}

// @Summary      List visible tasks
// @Description  Ordered by final deadline. filter is one of today, upcoming, overdue.
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        filter          query  string  false  "today|upcoming|overdue"
// @Param        status          query  string  false  "Task status"
// @Param        priority        query  string  false  "Task priority"
// @Param        type_id         query  int     false  "Task type"
// @Param        assigned_to_id  query  int     false  "Assignee"
// @Param        from_date       query  string  false  "Deadline from (YYYY-MM-DD)"
// @Param        to_date         query  string  false  "Deadline to (YYYY-MM-DD)"
// @Success      200  {array}  models.Task
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	filter, err := taskFilterFromQuery(c)
	if err != nil {
		h.log.Infof("[task][list][err] bad query: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q := services.TaskListQuery{Filter: filter, Window: c.Query("filter")}
	tasks, err := h.service.List(c.Request.Context(), currentUser(c), q)
	if err != nil {
		fail(c, h.log, "[task][list]", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func taskFilterFromQuery(c *gin.Context) (models.TaskFilter, error) {
	var f models.TaskFilter
	if s := c.Query("status"); s != "" {
		st := models.TaskStatus(s)
		if !st.Valid() {
			return f, errBadQuery("status", s)
		}
		f.Status = &st
	}
	if s := c.Query("priority"); s != "" {
		p := models.TaskPriority(s)
		if !p.Valid() {
			return f, errBadQuery("priority", s)
		}
		f.Priority = &p
	}
	var err error
	if f.TypeID, err = parseOptionalInt(c.Query("type_id")); err != nil {
		return f, errBadQuery("type_id", c.Query("type_id"))
	}
	if f.AssignedToID, err = parseOptionalInt(c.Query("assigned_to_id")); err != nil {
		return f, errBadQuery("assigned_to_id", c.Query("assigned_to_id"))
	}
	if f.DeadlineFrom, err = parseDate(c.Query("from_date")); err != nil {
		return f, errBadQuery("from_date", c.Query("from_date"))
	}
	if f.DeadlineTo, err = parseDate(c.Query("to_date")); err != nil {
		return f, errBadQuery("to_date", c.Query("to_date"))
	}
	return f, nil
}

// @Summary   Get task
// @Tags      Tasks
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      int  true  "Task ID"
// @Success   200  {object}  models.Task
// @Failure   403  {object}  map[string]string
// @Failure   404  {object}  map[string]string
// @Router    /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, err := h.service.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		fail(c, h.log, "[task][get]", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary   Edit task
// @Tags      Tasks
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id    path      int          true  "Task ID"
// @Param     task  body      taskRequest  true  "Task"
// @Success   200   {object}  models.Task
// @Router    /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	in, ok := h.bindTask(c, "[task][update]")
	if !ok {
		return
	}
	task, err := h.service.Update(c.Request.Context(), currentUser(c), id, in)
	if err != nil {
		fail(c, h.log, "[task][update]", err)
		return
	}
	h.log.Infof("[task][update][ok] id=%d", id)
	c.JSON(http.StatusOK, task)
}

// @Summary   Archive task
// @Tags      Tasks
// @Security  BearerAuth
// @Param     id  path  int  true  "Task ID"
// @Success   204
// @Router    /tasks/{id}/archive [post]
func (h *TaskHandler) Archive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Archive(c.Request.Context(), currentUser(c), id); err != nil {
		fail(c, h.log, "[task][archive]", err)
		return
	}
	h.log.Infof("[task][archive][ok] id=%d", id)
	c.Status(http.StatusNoContent)
}

type transitionFunc func(c *gin.Context, actor *models.User, id int64) (*models.Task, error)

func (h *TaskHandler) runTransition(c *gin.Context, tag string, fn transitionFunc) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actor := currentUser(c)
	task, err := fn(c, actor, id)
	if err != nil {
		fail(c, h.log, tag, err)
		return
	}
	h.log.Infof("%s[ok] id=%d by=%d status=%q", tag, id, actor.ID, task.Status)
	c.JSON(http.StatusOK, task)
}

func bindRemarks(c *gin.Context) (*string, error) {
	if c.Request.ContentLength == 0 {
		return nil, nil
	}
	var req remarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, err
	}
	return req.Remarks, nil
}

// @Summary      Submit task for review
// @Description  Allowed to the assignee from To Do, In Progress or Returned.
// @Tags         Workflow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true   "Task ID"
// @Param        body  body      remarksRequest  false  "Submission remarks"
// @Success      200   {object}  models.Task
// @Failure      403   {object}  map[string]string
// @Router       /tasks/{id}/submit [post]
func (h *TaskHandler) Submit(c *gin.Context) {
	h.runTransition(c, "[task][submit]", func(c *gin.Context, actor *models.User, id int64) (*models.Task, error) {
		remarks, err := bindRemarks(c)
		if err != nil {
			return nil, errBadBody(err)
		}
		return h.service.Submit(c.Request.Context(), actor, id, remarks)
	})
}

// @Summary   Approve a submitted task
// @Tags      Workflow
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      int  true  "Task ID"
// @Success   200  {object}  models.Task
// @Failure   403  {object}  map[string]string
// @Router    /tasks/{id}/approve [post]
func (h *TaskHandler) Approve(c *gin.Context) {
	h.runTransition(c, "[task][approve]", func(c *gin.Context, actor *models.User, id int64) (*models.Task, error) {
		return h.service.Approve(c.Request.Context(), actor, id)
	})
}

// @Summary   Return a submitted task to the assignee
// @Tags      Workflow
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      int  true  "Task ID"
// @Success   200  {object}  models.Task
// @Failure   403  {object}  map[string]string
// @Router    /tasks/{id}/return [post]
func (h *TaskHandler) Return(c *gin.Context) {
	h.runTransition(c, "[task][return]", func(c *gin.Context, actor *models.User, id int64) (*models.Task, error) {
		return h.service.Return(c.Request.Context(), actor, id)
	})
}

// @Summary   Complete task (admin)
// @Tags      Workflow
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id    path      int             true   "Task ID"
// @Param     body  body      remarksRequest  false  "Completion remarks"
// @Success   200   {object}  models.Task
// @Failure   403   {object}  map[string]string
// @Router    /tasks/{id}/complete [post]
func (h *TaskHandler) Complete(c *gin.Context) {
	h.runTransition(c, "[task][complete]", func(c *gin.Context, actor *models.User, id int64) (*models.Task, error) {
		remarks, err := bindRemarks(c)
		if err != nil {
			return nil, errBadBody(err)
		}
		return h.service.Complete(c.Request.Context(), actor, id, remarks)
	})
}

