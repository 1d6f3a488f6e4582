package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/models"
	"taskflow/internal/services"
)

type SettingsHandler struct {
	service services.SettingsService
	log     logrus.FieldLogger
}

func NewSettingsHandler(service services.SettingsService, log logrus.FieldLogger) *SettingsHandler {
	return &SettingsHandler{service: service, log: log}
}

// @Summary   Application settings
// @Tags      Settings
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  models.AppSettings
// @Router    /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.service.Get(c.Request.Context())
	if err != nil {
		fail(c, h.log, "[settings][get]", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary   Update application settings
// @Tags      Settings
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body      models.AppSettings  true  "Settings"
// @Success   200   {object}  models.AppSettings
// @Failure   400   {object}  map[string]string
// @Router    /settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var in models.AppSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.service.Update(c.Request.Context(), in)
	if err != nil {
		fail(c, h.log, "[settings][update]", err)
		return
	}
	h.log.Infof("[settings][update][ok] by=%d theme=%q", currentUser(c).ID, s.Theme)
	c.JSON(http.StatusOK, s)
}
