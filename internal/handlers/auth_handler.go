package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"taskflow/internal/config"
	"taskflow/internal/models"
	"taskflow/internal/services"
)

type AuthHandler struct {
	auth   services.AuthService
	cookie string
	ttl    int
	secure bool
	log    logrus.FieldLogger
}

func NewAuthHandler(auth services.AuthService, cfg config.AuthConfig, secureCookie bool, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		cookie: cfg.SessionCookie,
		ttl:    int(cfg.AccessTTL.Seconds()),
		secure: secureCookie,
		log:    log,
	}
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        *models.User `json:"user"`
}

// @Summary      Sign in
// @Description  Checks the credentials and returns an access token; the token is also set as the session cookie
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  loginResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      429    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Infof("[auth][login][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	username := strings.TrimSpace(req.Username)
	h.log.Infof("[auth][login] attempt username=%q ip=%s", username, c.ClientIP())

	token, user, err := h.auth.Login(c.Request.Context(), username, req.Password)
	if err != nil {
		fail(c, h.log, "[auth][login]", err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie, token, h.ttl, "/", "", h.secure, true)
	h.log.Infof("[auth][login][ok] user_id=%d role=%s", user.ID, user.Role)
	c.JSON(http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.ttl,
		User:        user,
	})
}

// @Summary  Sign out
// @Tags     Auth
// @Success  204
// @Router   /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie, "", -1, "/", "", h.secure, true)
	if u := currentUser(c); u != nil {
		h.log.Infof("[auth][logout][ok] user_id=%d", u.ID)
	}
	c.Status(http.StatusNoContent)
}

// @Summary   Current user
// @Tags      Auth
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  models.User
// @Router    /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}
