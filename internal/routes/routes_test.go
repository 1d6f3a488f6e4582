package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	denyAll := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	pass := func(c *gin.Context) { c.Next() }

	r := SetupRoutes(gin.New(), Handlers{}, Guards{Auth: denyAll, Login: pass})

	registered := map[string]bool{}
	for _, rt := range r.Routes() {
		registered[rt.Method+" "+rt.Path] = true
	}
	for _, want := range []string{
		"POST /login", "POST /logout", "GET /me", "GET /ws", "GET /dashboard",
		"GET /users", "POST /users", "GET /users/assignable",
		"PUT /users/:id/manager", "PUT /users/:id/active", "PUT /users/:id/privileges",
		"GET /task-types", "POST /task-types", "POST /task-types/:id/toggle",
		"GET /tasks", "POST /tasks", "GET /tasks/:id", "PUT /tasks/:id", "POST /tasks/:id/archive",
		"POST /tasks/:id/submit", "POST /tasks/:id/approve", "POST /tasks/:id/return", "POST /tasks/:id/complete",
		"GET /tasks/:id/milestones", "POST /tasks/:id/milestones",
		"PUT /milestones/:id", "DELETE /milestones/:id", "POST /milestones/:id/status", "POST /milestones/:id/move",
		"GET /quick-tasks", "POST /quick-tasks",
		"GET /reports", "GET /reports/export/xlsx", "GET /reports/export/pdf",
		"GET /settings", "PUT /settings",
		"GET /healthz", "GET /metrics", "GET /swagger/*any",
	} {
		assert.True(t, registered[want], "missing route %s", want)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "taskflow_")
}
