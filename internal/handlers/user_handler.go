package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/services"
)

type UserHandler struct {
	service services.UserService
	log     logrus.FieldLogger
}

func NewUserHandler(service services.UserService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{service: service, log: log}
}

// @Summary   Create user
// @Tags      Users
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     user  body      services.NewUserInput  true  "New user"
// @Success   201   {object}  models.User
// @Failure   400   {object}  map[string]string
// @Router    /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var in services.NewUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.log.Infof("[user][create][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, h.log, "[user][create]", err)
		return
	}
	h.log.Infof("[user][create][ok] id=%d username=%q role=%s", u.ID, u.Username, u.Role)
	c.JSON(http.StatusCreated, u)
}

// @Summary   List users
// @Tags      Users
// @Produce   json
// @Security  BearerAuth
// @Success   200  {array}  models.User
// @Router    /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		fail(c, h.log, "[user][list]", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary   Users the caller may assign tasks to
// @Tags      Users
// @Produce   json
// @Security  BearerAuth
// @Success   200  {array}  models.User
// @Router    /users/assignable [get]
func (h *UserHandler) Assignable(c *gin.Context) {
	users, err := h.service.Assignable(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, h.log, "[user][assignable]", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

type setManagerRequest struct {
	ManagerID *int64 `json:"manager_id"`
}

// @Summary   Set or clear a user's manager
// @Tags      Users
// @Accept    json
// @Security  BearerAuth
// @Param     id    path  int                true  "User ID"
// @Param     body  body  setManagerRequest  true  "Manager; null clears it"
// @Success   204
// @Failure   400  {object}  map[string]string
// @Router    /users/{id}/manager [put]
func (h *UserHandler) SetManager(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetManager(c.Request.Context(), id, req.ManagerID); err != nil {
		fail(c, h.log, "[user][manager]", err)
		return
	}
	h.log.Infof("[user][manager][ok] id=%d manager_id=%v", id, req.ManagerID)
	c.Status(http.StatusNoContent)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// @Summary   Activate or deactivate a user
// @Tags      Users
// @Accept    json
// @Security  BearerAuth
// @Param     id    path  int               true  "User ID"
// @Param     body  body  setActiveRequest  true  "Active flag"
// @Success   204
// @Router    /users/{id}/active [put]
func (h *UserHandler) SetActive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetActive(c.Request.Context(), currentUser(c), id, *req.Active); err != nil {
		fail(c, h.log, "[user][active]", err)
		return
	}
	h.log.Infof("[user][active][ok] id=%d active=%t", id, *req.Active)
	c.Status(http.StatusNoContent)
}

type setPrivilegesRequest struct {
	Privileges []string `json:"privileges"`
}

// @Summary   Replace a user's privileges
// @Tags      Users
// @Accept    json
// @Security  BearerAuth
// @Param     id    path  int                   true  "User ID"
// @Param     body  body  setPrivilegesRequest  true  "Privilege codes"
// @Success   204
// @Router    /users/{id}/privileges [put]
func (h *UserHandler) SetPrivileges(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req setPrivilegesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetPrivileges(c.Request.Context(), id, req.Privileges); err != nil {
		fail(c, h.log, "[user][privileges]", err)
		return
	}
	c.Status(http.StatusNoContent)
}
