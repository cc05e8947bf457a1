package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/metrics"
	"github.com/shopfront/backend/internal/model"
	"github.com/shopfront/backend/internal/service"
	log "github.com/sirupsen/logrus"
)

type AuthHandler struct {
	svc     *service.AuthService
	metrics *metrics.Manager
}

func NewAuthHandler(svc *service.AuthService, m *metrics.Manager) *AuthHandler {
	return &AuthHandler{svc: svc, metrics: m}
}

// Signup godoc
// @Summary Register a new admin
// @Description Disabled when ALLOW_SIGNUP is false.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.SignupRequest true "Username, email and password"
// @Success 200 {object} model.SignupResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/admin/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	admin, err := h.svc.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	log.Infof("admin %q signed up", admin.Username)
	c.JSON(http.StatusOK, model.SignupResponse{
		Message: "Signup successful!",
		Admin: model.SignupAdmin{
			Username: admin.Username,
			Email:    admin.Email,
		},
	})
}

// Login godoc
// @Summary Login
// @Description Returns a bearer token and sets it in the adminToken cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Username and password"
// @Success 200 {object} model.LoginResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 429 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/admin/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, admin, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			if h.metrics != nil {
				h.metrics.CounterLoginFailures.Inc()
			}
			log.Warnf("rejected login for %q from %s", req.Username, c.ClientIP())
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid username or password",
			})
			return
		}
		writeError(c, err)
		return
	}

	h.setAuthCookie(c, token)
	c.JSON(http.StatusOK, model.LoginResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User:    model.LoginUser{Username: admin.Username},
	})
}

// Logout godoc
// @Summary Logout
// @Description Revokes the presented token (if valid) and clears the cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} model.MessageResponse
// @Router /api/admin/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(tokenFromRequest(c, h.svc.CookieConfig().Name)); err != nil {
		log.Warnf("failed to revoke token on logout: %v", err)
	}
	h.clearAuthCookie(c)
	c.JSON(http.StatusOK, model.MessageResponse{Message: "Logged out successfully"})
}

// Me godoc
// @Summary Get current admin
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.AuthMeResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/admin/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, model.AuthMeResponse{
		Username: user.Username,
		Role:     user.Role,
	})
}

// Verify godoc
// @Summary Verify a token
// @Description Reads the bearer header or the adminToken cookie. Invalid tokens clear the cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} model.VerifyResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/auth/verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	c.Header("Cache-Control", "no-store, must-revalidate")

	token := tokenFromRequest(c, h.svc.CookieConfig().Name)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return
	}

	user, err := h.svc.Verify(token)
	if err != nil {
		h.clearAuthCookie(c)
		msg := "Invalid token"
		if errors.Is(err, service.ErrTokenExpired) {
			msg = "Token expired"
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, model.VerifyResponse{
		Valid: true,
		User: model.AuthMeResponse{
			Username: user.Username,
			Role:     user.Role,
		},
	})
}

func (h *AuthHandler) setAuthCookie(c *gin.Context, token string) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, token, cfg.MaxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
}

func (h *AuthHandler) clearAuthCookie(c *gin.Context) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(cfg.Name, "", -1, cfg.Path, cfg.Domain, cfg.Secure, true)
}
