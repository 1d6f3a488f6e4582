package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/config"
	"taskflow/internal/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: 0, Mode: gin.TestMode},
		Auth:    config.AuthConfig{JWTSecret: "test-secret", SessionCookie: "sid", LoginRate: 1, LoginBurst: 1},
		Reports: config.ReportsConfig{PageSize: 10, DefaultColumns: config.ReportColumns},
		Theme:   config.ThemeConfig{Name: "classic", Buttons: config.DefaultButtons},
	}
}

func TestBuildRouter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	a := Build(testConfig(), logger.Discard(), db)
	require.NotNil(t, a.Router)

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/tasks", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	require.NoError(t, a.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
