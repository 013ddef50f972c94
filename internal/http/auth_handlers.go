package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loan-portal/internal/service"
)

// registerRequest has no role field; anything a client sends as "role" is dropped during binding.
type registerRequest struct {
	Name     string `json:"name" binding:"max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Phone    string `json:"phone" binding:"max=32"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	user, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	h.logger.WithField("account_id", user.ID).Info("account registered")
	c.JSON(http.StatusCreated, gin.H{"message": "user registered successfully"})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	session, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errorStatus(err) == http.StatusUnauthorized {
			h.metrics.AuthFailure("invalid_credentials")
		}
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: session.Token,
		User: SessionUserResponse{
			ID:    session.User.ID,
			Name:  session.User.Name,
			Email: session.User.Email,
			Role:  session.User.Role,
		},
	})
}

func (h *Handler) logout(c *gin.Context) {
	identity, ok := h.mustIdentity(c)
	if !ok {
		return
	}
	if err := h.sessions.Logout(c.Request.Context(), identity); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) me(c *gin.Context) {
	identity, ok := h.mustIdentity(c)
	if !ok {
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), identity.AccountID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) userProfile(c *gin.Context) {
	identity, _ := identityFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"message":   "user profile",
		"accountId": identity.AccountID,
		"role":      identity.Role,
	})
}

func (h *Handler) adminDashboard(c *gin.Context) {
	identity, _ := identityFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"message":   "admin dashboard",
		"accountId": identity.AccountID,
		"role":      identity.Role,
	})
}

func (h *Handler) sharedArea(c *gin.Context) {
	identity, _ := identityFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"message":   "shared area",
		"accountId": identity.AccountID,
		"role":      identity.Role,
	})
}
