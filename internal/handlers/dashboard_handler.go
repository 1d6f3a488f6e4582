package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/services"
)

type DashboardHandler struct {
	service services.DashboardService
	log     logrus.FieldLogger
}

func NewDashboardHandler(service services.DashboardService, log logrus.FieldLogger) *DashboardHandler {
	return &DashboardHandler{service: service, log: log}
}

// @Summary   Dashboard of the caller's visible work
// @Tags      Dashboard
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  services.Dashboard
// @Router    /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	d, err := h.service.Build(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, h.log, "[dashboard]", err)
		return
	}
	c.JSON(http.StatusOK, d)
}
