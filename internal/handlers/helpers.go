package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/middleware"
	"taskflow/internal/models"
	"taskflow/internal/services"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseOptionalInt(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// statusOf maps service errors onto HTTP codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// fail logs err under tag and writes the matching error response. Internal
// errors are not echoed to the client.
func fail(c *gin.Context, log logrus.FieldLogger, tag string, err error) {
	code := statusOf(err)
	entry := log.WithField("request_id", c.GetString(middleware.ContextRequestID))
	if u := currentUser(c); u != nil {
		entry = entry.WithField("user_id", u.ID)
	}
	switch code {
	case http.StatusInternalServerError:
		entry.Errorf("%s[err] %v", tag, err)
		c.JSON(code, gin.H{"error": "internal error"})
	case http.StatusForbidden:
		entry.Warnf("%s[deny] %v", tag, err)
		c.JSON(code, gin.H{"error": err.Error()})
	default:
		entry.Infof("%s[%d] %v", tag, code, err)
		c.JSON(code, gin.H{"error": err.Error()})
	}
}

func errBadQuery(name, value string) error {
	return fmt.Errorf("%w: invalid %s %q", services.ErrValidation, name, value)
}

func errBadBody(err error) error {
	return fmt.Errorf("%w: %v", services.ErrValidation, err)
}
