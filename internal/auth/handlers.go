package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Controller exposes the authentication endpoints.
type Controller struct {
	service        *Service
	sessionManager *SessionManager
}

// NewController creates the auth endpoints controller.
func NewController(service *Service, sessionManager *SessionManager) *Controller {
	return &Controller{service: service, sessionManager: sessionManager}
}

// RegisterRoutes attaches the auth endpoints to the router.
func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/auth/status", ctrl.Status)
	router.POST("/api/auth/setup", ctrl.Setup)
	router.POST("/api/auth/login", ctrl.Login)
	router.POST("/api/auth/logout", ctrl.Logout)
	router.POST("/api/auth/token", ctrl.GenerateToken)
	router.DELETE("/api/auth/token", ctrl.RevokeToken)
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Status reports whether auth is enabled and whether setup is still open.
func (ctrl *Controller) Status(c *gin.Context) {
	needsSetup, err := ctrl.service.NeedsSetup()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled":     ctrl.service.IsAuthEnabled(),
		"needs_setup": needsSetup,
	})
}

// Setup creates the first account. Closed once any account exists.
func (ctrl *Controller) Setup(c *gin.Context) {
	needsSetup, err := ctrl.service.NeedsSetup()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if !needsSetup {
		c.JSON(http.StatusForbidden, gin.H{"error": ErrSetupDone.Error()})
		return
	}

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ctrl.service.CreateUser(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if ctrl.sessionManager != nil {
		if err := ctrl.sessionManager.CreateSession(c.Request, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

// Login authenticates credentials and opens a session.
func (ctrl *Controller) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ctrl.service.Authenticate(req.Username, req.Password)
	if err != nil {
		// Wrong username and wrong password are indistinguishable to the
		// caller.
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInvalidPassword) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if ctrl.sessionManager != nil {
		if err := ctrl.sessionManager.CreateSession(c.Request, user); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username})
}

// Logout destroys the current session.
func (ctrl *Controller) Logout(c *gin.Context) {
	if ctrl.sessionManager != nil {
		if err := ctrl.sessionManager.DestroySession(c.Request); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to destroy session"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// GenerateToken issues a fresh API token for the authenticated user.
func (ctrl *Controller) GenerateToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	token, err := ctrl.service.GenerateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	// The plaintext is shown exactly once; only its hash is stored.
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// RevokeToken invalidates the authenticated user's API token.
func (ctrl *Controller) RevokeToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := ctrl.service.RevokeToken(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
