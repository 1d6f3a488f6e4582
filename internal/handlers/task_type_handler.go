package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/services"
)

type TaskTypeHandler struct {
	service services.TaskTypeService
	log     logrus.FieldLogger
}

func NewTaskTypeHandler(service services.TaskTypeService, log logrus.FieldLogger) *TaskTypeHandler {
	return &TaskTypeHandler{service: service, log: log}
}

// @Summary   Task types available to the caller
// @Tags      Task types
// @Produce   json
// @Security  BearerAuth
// @Success   200  {array}  models.TaskType
// @Router    /task-types [get]
func (h *TaskTypeHandler) List(c *gin.Context) {
	types, err := h.service.List(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, h.log, "[tasktype][list]", err)
		return
	}
	c.JSON(http.StatusOK, types)
}

type taskTypeRequest struct {
	Name       string `json:"name" binding:"required"`
	Department string `json:"department"`
}

// @Summary   Create task type
// @Tags      Task types
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body      taskTypeRequest  true  "Type; department defaults to the caller's"
// @Success   201   {object}  models.TaskType
// @Router    /task-types [post]
func (h *TaskTypeHandler) Create(c *gin.Context) {
	var req taskTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tt, err := h.service.Create(c.Request.Context(), currentUser(c), req.Name, req.Department)
	if err != nil {
		fail(c, h.log, "[tasktype][create]", err)
		return
	}
	h.log.Infof("[tasktype][create][ok] id=%d name=%q dept=%q", tt.ID, tt.Name, tt.Department)
	c.JSON(http.StatusCreated, tt)
}

// @Summary   Toggle task type active flag
// @Tags      Task types
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      int  true  "Type ID"
// @Success   200  {object}  models.TaskType
// @Router    /task-types/{id}/toggle [post]
func (h *TaskTypeHandler) Toggle(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tt, err := h.service.Toggle(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, "[tasktype][toggle]", err)
		return
	}
	c.JSON(http.StatusOK, tt)
}
