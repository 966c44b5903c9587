package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/adminkit/internal/middleware"
	"github.com/noah-isme/adminkit/internal/models"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
	"github.com/noah-isme/adminkit/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// AuthHandler wires login and logout to the auth service, for both the
// HTML form and the JSON API.
type AuthHandler struct {
	service authService
	cookie  CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{service: svc, cookie: cookie}
}

// LoginPage renders the login form, or sends signed in users home.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if sessionFromContext(c) != nil {
		c.Redirect(http.StatusFound, "/home")
		return
	}
	response.HTML(c, http.StatusOK, "login.html", pageData(c, "Login", gin.H{"message": "", "success": false}))
}

// LoginForm handles the posted login form.
func (h *AuthHandler) LoginForm(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(err)
		response.HTML(c, http.StatusBadRequest, "login.html", pageData(c, "Login", gin.H{
			"message": invalidFormMessage,
			"success": false,
		}))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		appErr := appErrors.FromError(err)
		status, message := http.StatusUnauthorized, appErr.Message
		switch {
		case errors.Is(err, appErrors.ErrValidation):
			message = "username and password are required"
		case appErr.Status >= http.StatusInternalServerError:
			_ = c.Error(err)
			status, message = appErr.Status, "login is temporarily unavailable"
		}
		response.HTML(c, status, "login.html", pageData(c, "Login", gin.H{
			"message":  message,
			"success":  false,
			"username": req.Username,
		}))
		return
	}

	h.setCookie(c, res.Token)
	c.Redirect(http.StatusFound, "/home")
}

// LogoutForm ends the browser session and returns to the login page.
func (h *AuthHandler) LogoutForm(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), tokenFromContext(c, h.cookie.Name)); err != nil {
		_ = c.Error(err)
	}
	middleware.ClearSessionCookie(c, h.cookie.Name)
	c.Redirect(http.StatusFound, middleware.LoginPath)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by username and password. The session token is returned and set as a cookie.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, res.Token)
	response.JSON(c, http.StatusOK, res)
}

// Logout godoc
// @Summary Logout
// @Description Delete the current session
// @Tags Authentication
// @Produce json
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), tokenFromContext(c, h.cookie.Name)); err != nil {
		response.Error(c, err)
		return
	}
	middleware.ClearSessionCookie(c, h.cookie.Name)
	response.NoContent(c)
}

// Me godoc
// @Summary Current session
// @Description Return the session of the caller
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session := sessionFromContext(c)
	if session == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

func (h *AuthHandler) setCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)
}
