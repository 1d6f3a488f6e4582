package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/services"
)

type QuickTaskHandler struct {
	service services.QuickTaskService
	log     logrus.FieldLogger
}

func NewQuickTaskHandler(service services.QuickTaskService, log logrus.FieldLogger) *QuickTaskHandler {
	return &QuickTaskHandler{service: service, log: log}
}

type quickTaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Notes       *string `json:"notes"`
	CompletedOn string  `json:"completed_on"` // 2006-01-02, defaults to today
}

// @Summary   Log a quick task
// @Tags      Quick tasks
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body      quickTaskRequest  true  "Quick log"
// @Success   201   {object}  models.QuickTask
// @Router    /quick-tasks [post]
func (h *QuickTaskHandler) Create(c *gin.Context) {
	var req quickTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := parseDate(req.CompletedOn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "completed_on must be YYYY-MM-DD"})
		return
	}
	actor := currentUser(c)
	qt, err := h.service.Create(c.Request.Context(), actor, req.Title, req.Notes, day)
	if err != nil {
		fail(c, h.log, "[quick][create]", err)
		return
	}
	h.log.Infof("[quick][create][ok] id=%d by=%d", qt.ID, actor.ID)
	c.JSON(http.StatusCreated, qt)
}

// @Summary   Quick logs (admins see all, others their own)
// @Tags      Quick tasks
// @Produce   json
// @Security  BearerAuth
// @Param     from_date  query  string  false  "YYYY-MM-DD"
// @Param     to_date    query  string  false  "YYYY-MM-DD"
// @Success   200  {array}  models.QuickTask
// @Router    /quick-tasks [get]
func (h *QuickTaskHandler) List(c *gin.Context) {
	from, err := parseDate(c.Query("from_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from_date must be YYYY-MM-DD"})
		return
	}
	to, err := parseDate(c.Query("to_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to_date must be YYYY-MM-DD"})
		return
	}
	list, err := h.service.List(c.Request.Context(), currentUser(c), from, to)
	if err != nil {
		fail(c, h.log, "[quick][list]", err)
		return
	}
	c.JSON(http.StatusOK, list)
}
