package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/realtime"
)

type WSHandler struct {
	hub      *realtime.Hub
	upgrader *realtime.Upgrader
	log      logrus.FieldLogger
}

func NewWSHandler(hub *realtime.Hub, upgrader *realtime.Upgrader, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{hub: hub, upgrader: upgrader, log: log}
}

// @Summary      Task event stream
// @Description  Websocket of task events for the signed-in user. Browsers pass the token as ?token=.
// @Tags         Realtime
// @Security     BearerAuth
// @Router       /ws [get]
func (h *WSHandler) Serve(c *gin.Context) {
	user := currentUser(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request)
	if err != nil {
		// Upgrade already wrote the error response.
		h.log.Infof("[ws][upgrade][err] user_id=%d: %v", user.ID, err)
		return
	}
	client := h.hub.Serve(conn, user.ID)
	h.log.Infof("[ws][connect] user_id=%d session=%s", user.ID, client.ID)
}
