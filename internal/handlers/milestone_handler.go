package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/models"
	"taskflow/internal/services"
	"taskflow/internal/workflow"
)

type MilestoneHandler struct {
	service services.MilestoneService
	log     logrus.FieldLogger
}

func NewMilestoneHandler(service services.MilestoneService, log logrus.FieldLogger) *MilestoneHandler {
	return &MilestoneHandler{service: service, log: log}
}

type milestoneRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Deadline    string  `json:"deadline" binding:"required"` // 2006-01-02
	Sequence    *int    `json:"sequence"`
}

func (h *MilestoneHandler) bind(c *gin.Context, tag string) (services.MilestoneInput, bool) {
	var req milestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Infof("%s[bind][err] %v", tag, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return services.MilestoneInput{}, false
	}
	deadline, err := parseDate(req.Deadline)
	if err != nil || deadline == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deadline must be YYYY-MM-DD"})
		return services.MilestoneInput{}, false
	}
	return services.MilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    *deadline,
		Sequence:    req.Sequence,
	}, true
}

// @Summary   Milestones of a task
// @Tags      Milestones
// @Produce   json
// @Security  BearerAuth
// @Param     id   path   int  true  "Task ID"
// @Success   200  {array}  models.Milestone
// @Router    /tasks/{id}/milestones [get]
func (h *MilestoneHandler) List(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ms, err := h.service.List(c.Request.Context(), currentUser(c), taskID)
	if err != nil {
		fail(c, h.log, "[milestone][list]", err)
		return
	}
	c.JSON(http.StatusOK, ms)
}

// @Summary      Add milestone
// @Description  Sequence defaults to the number of existing milestones plus one.
// @Tags         Milestones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      int               true  "Task ID"
// @Param        milestone  body      milestoneRequest  true  "Milestone"
// @Success      201        {object}  models.Milestone
// @Failure      403        {object}  map[string]string
// @Router       /tasks/{id}/milestones [post]
func (h *MilestoneHandler) Add(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	in, ok := h.bind(c, "[milestone][add]")
	if !ok {
		return
	}
	m, err := h.service.Add(c.Request.Context(), currentUser(c), taskID, in)
	if err != nil {
		fail(c, h.log, "[milestone][add]", err)
		return
	}
	h.log.Infof("[milestone][add][ok] id=%d task_id=%d seq=%d", m.ID, taskID, m.Sequence)
	c.JSON(http.StatusCreated, m)
}

// @Summary   Edit milestone
// @Tags      Milestones
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id         path      int               true  "Milestone ID"
// @Param     milestone  body      milestoneRequest  true  "Milestone"
// @Success   200        {object}  models.Milestone
// @Router    /milestones/{id} [put]
func (h *MilestoneHandler) Edit(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	in, ok := h.bind(c, "[milestone][edit]")
	if !ok {
		return
	}
	m, err := h.service.Edit(c.Request.Context(), currentUser(c), id, in)
	if err != nil {
		fail(c, h.log, "[milestone][edit]", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type milestoneStatusRequest struct {
	Status models.MilestoneStatus `json:"status" binding:"required"`
}

// @Summary      Set milestone status
// @Description  Completing the last open milestone completes the task.
// @Tags         Milestones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                     true  "Milestone ID"
// @Param        body  body      milestoneStatusRequest  true  "Pending|Completed"
// @Success      200   {object}  services.MilestoneStatusResult
// @Router       /milestones/{id}/status [post]
func (h *MilestoneHandler) SetStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req milestoneStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.service.SetStatus(c.Request.Context(), currentUser(c), id, req.Status)
	if err != nil {
		fail(c, h.log, "[milestone][status]", err)
		return
	}
	h.log.Infof("[milestone][status][ok] id=%d status=%q task_completed=%t", id, req.Status, res.TaskCompleted)
	c.JSON(http.StatusOK, res)
}

type milestoneMoveRequest struct {
	Direction workflow.Direction `json:"direction" binding:"required"` // up|down
}

// @Summary   Move milestone up or down
// @Tags      Milestones
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id    path     int                   true  "Milestone ID"
// @Param     body  body     milestoneMoveRequest  true  "Direction"
// @Success   200   {array}  models.Milestone
// @Router    /milestones/{id}/move [post]
func (h *MilestoneHandler) Move(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req milestoneMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ms, err := h.service.Move(c.Request.Context(), currentUser(c), id, req.Direction)
	if err != nil {
		fail(c, h.log, "[milestone][move]", err)
		return
	}
	c.JSON(http.StatusOK, ms)
}

// @Summary   Delete milestone
// @Tags      Milestones
// @Security  BearerAuth
// @Param     id  path  int  true  "Milestone ID"
// @Success   204
// @Router    /milestones/{id} [delete]
func (h *MilestoneHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		fail(c, h.log, "[milestone][delete]", err)
		return
	}
	h.log.Infof("[milestone][delete][ok] id=%d", id)
	c.Status(http.StatusNoContent)
}
